package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"mastery/internal/api/v1/dto"
	"mastery/internal/apperr"
	"mastery/internal/config"
	"mastery/internal/middleware"
	"mastery/internal/service"

	"github.com/go-playground/validator/v10"
)

// RefreshTokenCookie carries the long-lived refresh token. It is scoped to
// the auth routes so it never rides along on ordinary API calls.
const RefreshTokenCookie = "refresh_token"

// AuthHandler handles registration, login, token refresh, logout and
// retrieval of the URL decryption key.
type AuthHandler struct {
	authService     service.AuthService
	playbackService service.PlaybackService
	validate        *validator.Validate
	cfg             *config.Config
}

func NewAuthHandler(authService service.AuthService, playbackService service.PlaybackService, v *validator.Validate, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, playbackService: playbackService, validate: v, cfg: cfg}
}

// RegisterRoutes mounts v1 auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/login", h.login)
	mux.HandleFunc("/auth/refresh", h.refresh)
	mux.Handle("/auth/logout", authMw(http.HandlerFunc(h.logout)))
	mux.Handle("/auth/key", authMw(http.HandlerFunc(h.getKey)))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	user, tokens, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	writeJSON(w, http.StatusCreated, dto.AuthResponseDTO{
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		AccessToken: tokens.AccessToken,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeBadRequest(w, "Validation failed: "+err.Error())
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	writeJSON(w, http.StatusOK, dto.AuthResponseDTO{
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		AccessToken: tokens.AccessToken,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, apperr.New(apperr.Unauthenticated, "refresh token missing"))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, tokens)
	writeJSON(w, http.StatusOK, dto.TokenResponseDTO{AccessToken: tokens.AccessToken})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	if err := h.authService.Logout(r.Context(), principal.ID); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// getKey returns the key needed to decrypt an encrypted signed URL: the
// per-asset key when a publicId query parameter is present, otherwise the
// configured default.
func (h *AuthHandler) getKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if _, ok := middleware.PrincipalFrom(r.Context()); !ok {
		writeError(w, apperr.New(apperr.Unauthenticated, "not authenticated"))
		return
	}

	key, err := h.playbackService.DecryptionKey(r.Context(), r.URL.Query().Get("publicId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DecryptionKeyResponseDTO{Key: key})
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, tokens *service.TokenPair) {
	secure := h.cfg.Environment == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/v1/auth",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  expired,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     "/v1/auth",
		Expires:  expired,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
