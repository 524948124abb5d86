package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"mastery/internal/api/v1/dto"
	"mastery/internal/apperr"
	"mastery/internal/middleware"
	"mastery/internal/model"
	"mastery/internal/service"

	"github.com/go-playground/validator/v10"
)

// CourseHandler handles course CRUD and playback URL minting
type CourseHandler struct {
	courseService   service.CourseService
	playbackService service.PlaybackService
	validate        *validator.Validate
}

func NewCourseHandler(courseService service.CourseService, playbackService service.PlaybackService, v *validator.Validate) *CourseHandler {
	return &CourseHandler{courseService: courseService, playbackService: playbackService, validate: v}
}

// RegisterRoutes mounts v1 course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", authMw(http.HandlerFunc(h.handleCourses)))
	mux.Handle("/courses/signed-url", authMw(http.HandlerFunc(h.mintSignedURL)))
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createCourse(w, r)
	case http.MethodGet:
		h.listCourses(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimPrefix(r.URL.Path, "/courses/")
	if courseID == "" || strings.Contains(courseID, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getCourse(w, r, courseID)
	case http.MethodPut:
		h.updateCourse(w, r, courseID)
	case http.MethodDelete:
		h.deleteCourse(w, r, courseID)
	default:
		http.NotFound(w, r)
	}
}

func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	course := &model.Course{Title: req.Title}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}

	created, err := h.courseService.CreateCourse(r.Context(), principal, course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewCourseResponse(created))
}

func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	courses, total, err := h.courseService.ListCourses(r.Context(), q.Get("search"), q.Get("category"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := dto.CourseListResponseDTO{
		Courses: make([]dto.CourseResponseDTO, 0, len(courses)),
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
	for i := range courses {
		resp.Courses = append(resp.Courses, dto.NewCourseResponse(&courses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	course, err := h.courseService.GetCourseByID(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	if course == nil {
		writeError(w, apperr.New(apperr.NotFound, "course not found"))
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponse(course))
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	course := &model.Course{CourseID: courseID}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}

	updated, err := h.courseService.UpdateCourse(r.Context(), principal, course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCourseResponse(updated))
}

func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	if err := h.courseService.DeleteCourse(r.Context(), principal, courseID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mintSignedURL issues a time-boxed playback URL for an asset the caller
// owns (or administers). A stale client version is rejected outright.
func (h *CourseHandler) mintSignedURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}
	var req dto.SignedURLRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	signed, err := h.playbackService.MintPlaybackURL(r.Context(), principal, req.PublicID, req.FileType, req.Version)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := dto.SignedURLResponseDTO{ExpiresAt: signed.ExpiresAt}
	if signed.Encrypted {
		resp.EncryptedURL = signed.URL
	} else {
		resp.URL = signed.URL
	}
	writeJSON(w, http.StatusOK, resp)
}
