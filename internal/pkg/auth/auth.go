package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
)

// contextKey is a custom type used for storing values in a context without
// risking collisions.
type contextKey string

// ContextUserID is the key used to store and retrieve the authenticated
// user's id from the request context.
const ContextUserID contextKey = "contextUserID"

// ContextRole is the key used to store and retrieve the authenticated
// user's role from the request context.
const ContextRole contextKey = "contextRole"

// UserID extracts the authenticated user id from the request context.
// The second return value is false when the request is not authenticated.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextUserID).(int64)
	return id, ok && id != 0
}

// CheckJWTMiddleware validates the Authorization header of incoming
// requests. It checks for a Bearer token, parses it, and stores the user id
// and role in the request context. Validation failures are answered with
// 401 and the UNAUTHENTICATED kind.
func CheckJWTMiddleware() func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if authHeader == "" {
				writeAuthError(w, "missing auth header")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeAuthError(w, "invalid auth header")
				return
			}

			claims, err := ParseToken(parts[1])
			if err != nil {
				writeAuthError(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextRole, claims.Role)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// RequireAdmin allows only requests whose token carries the admin role.
// Must be mounted inside CheckJWTMiddleware.
func RequireAdmin() func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(ContextRole).(models.Role)
			if !ok || role != models.RoleAdmin {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(models.ErrorBody{Error: models.ErrorDetail{
					Code:    string(apperrors.KindNotAuthorized),
					Message: "admin role required",
				}})
				return
			}
			h.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorBody{Error: models.ErrorDetail{
		Code:    string(apperrors.KindUnauthenticated),
		Message: msg,
	}})
}
