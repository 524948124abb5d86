package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"mastery/internal/api/v1/dto"
	"mastery/internal/apperr"
	"mastery/internal/middleware"
	"mastery/internal/service"

	"github.com/go-playground/validator/v10"
)

// ContentHandler handles units, lectures and the two-phase media upload
type ContentHandler struct {
	contentService service.ContentService
	validate       *validator.Validate
}

func NewContentHandler(contentService service.ContentService, v *validator.Validate) *ContentHandler {
	return &ContentHandler{contentService: contentService, validate: v}
}

// RegisterRoutes mounts unit, lecture and asset routes
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/units", authMw(http.HandlerFunc(h.createUnit)))
	mux.Handle("/units/", authMw(http.HandlerFunc(h.handleUnit)))
	mux.Handle("/assets/", authMw(http.HandlerFunc(h.handleAsset)))
}

func (h *ContentHandler) createUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.UnitCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	unit, upload, err := h.contentService.AddUnit(r.Context(), principal, req.CourseID, req.Title, req.Filename, req.FileSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.UnitResponseDTO{
		UnitID:   unit.UnitID,
		CourseID: unit.CourseID,
		Title:    unit.Title,
		Upload: dto.UploadDTO{
			PublicID:  upload.PublicID,
			FileType:  upload.Kind,
			Version:   upload.Version,
			UploadURL: upload.UploadURL,
		},
		CreatedAt: unit.CreatedAt,
	})
}

// handleUnit dispatches /units/{unitId}/lectures
func (h *ContentHandler) handleUnit(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/units/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "lectures" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.createLecture(w, r, parts[0])
}

func (h *ContentHandler) createLecture(w http.ResponseWriter, r *http.Request, unitID string) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.LectureCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	lecture, upload, err := h.contentService.AddLecture(r.Context(), principal, req.CourseID, unitID, req.Title, req.Order, req.Filename, req.FileSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.LectureResponseDTO{
		LectureID: lecture.LectureID,
		UnitID:    lecture.UnitID,
		Title:     lecture.Title,
		Order:     lecture.Order,
		Upload: dto.UploadDTO{
			PublicID:  upload.PublicID,
			FileType:  upload.Kind,
			Version:   upload.Version,
			UploadURL: upload.UploadURL,
		},
		CreatedAt: lecture.CreatedAt,
	})
}

// handleAsset dispatches /assets/{publicId}/complete and /assets/{publicId}/replace
func (h *ContentHandler) handleAsset(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/assets/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	switch parts[1] {
	case "complete":
		h.completeUpload(w, r, parts[0])
	case "replace":
		h.replaceUpload(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *ContentHandler) completeUpload(w http.ResponseWriter, r *http.Request, publicID string) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	asset, err := h.contentService.CompleteUpload(r.Context(), principal, publicID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAssetResponse(asset))
}

func (h *ContentHandler) replaceUpload(w http.ResponseWriter, r *http.Request, publicID string) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.ReplaceUploadDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	upload, err := h.contentService.InitiateReplace(r.Context(), principal, publicID, req.FileSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UploadDTO{
		PublicID:  upload.PublicID,
		FileType:  upload.Kind,
		Version:   upload.Version,
		UploadURL: upload.UploadURL,
	})
}
