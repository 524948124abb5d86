package handler

import (
	"encoding/json"
	"net/http"

	"mastery/internal/api/v1/dto"
	"mastery/internal/apperr"
	"mastery/internal/middleware"
	"mastery/internal/service"

	"github.com/go-playground/validator/v10"
)

// ProgressHandler handles lecture completion tracking
type ProgressHandler struct {
	progressService service.ProgressService
	validate        *validator.Validate
}

func NewProgressHandler(progressService service.ProgressService, v *validator.Validate) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, validate: v}
}

// RegisterRoutes mounts v1 progress routes
func (h *ProgressHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/progress", authMw(http.HandlerFunc(h.getProgress)))
	mux.Handle("/progress/mark-completed", authMw(http.HandlerFunc(h.markCompleted)))
}

func (h *ProgressHandler) markCompleted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.ProgressCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	progress, err := h.progressService.MarkCompleted(r.Context(), principal, req.CourseID, req.UnitID, req.LectureID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProgressResponseDTO{
		CourseID:    progress.CourseID,
		UnitID:      progress.UnitID,
		LectureID:   progress.LectureID,
		Completed:   progress.Completed,
		CompletedAt: progress.CompletedAt,
	})
}

func (h *ProgressHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	entries, err := h.progressService.GetProgress(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]dto.ProgressResponseDTO, 0, len(entries))
	for _, p := range entries {
		resp = append(resp, dto.ProgressResponseDTO{
			CourseID:    p.CourseID,
			UnitID:      p.UnitID,
			LectureID:   p.LectureID,
			Completed:   p.Completed,
			CompletedAt: p.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
