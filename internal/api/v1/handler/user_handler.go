package handler

import (
	"net/http"

	"mastery/internal/api/v1/dto"
	"mastery/internal/apperr"
	"mastery/internal/middleware"
	"mastery/internal/service"
)

// UserHandler exposes the authenticated user's profile
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/users/me", authMw(http.HandlerFunc(h.getProfile)))
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	user, err := h.userService.GetProfile(r.Context(), principal.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponseDTO{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}
