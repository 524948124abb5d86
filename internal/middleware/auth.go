package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"mastery/internal/logger"
	"mastery/internal/model"
	"mastery/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const PrincipalContextKey = contextKey("principal")

// AccessTokenCookie is the cookie carrying the short-lived access token.
const AccessTokenCookie = "access_token"

// PrincipalFrom extracts the authenticated principal from the request context.
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(model.Principal)
	return p, ok
}

// AuthMiddleware authenticates a request from either the access-token cookie
// or an Authorization bearer header and attaches the resulting principal to
// the request context.
func AuthMiddleware(accessSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.New()

			tokenString := bearerToken(r)
			if tokenString == "" {
				if c, err := r.Cookie(AccessTokenCookie); err == nil {
					tokenString = c.Value
				}
			}
			if tokenString == "" {
				log.Warn().Str("path", r.URL.Path).Msg("Missing credentials")
				writeUnauthorized(w, "Not authorized, token missing")
				return
			}

			claims, err := util.ValidateToken(tokenString, accessSecret)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Invalid token")
				writeUnauthorized(w, "Not authorized, invalid token")
				return
			}

			principal := model.Principal{ID: claims.Subject, Role: claims.Role}
			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized emits the same JSON error shape the handlers use.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
