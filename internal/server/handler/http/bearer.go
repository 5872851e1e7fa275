package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// ExtractToken returns the bearer token from the Authorization header, or ""
// when the header is missing or malformed.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Authenticate resolves the bearer token to a user via the token service and
// stores the user in the request context. Validity is set membership: an
// unknown token is rejected even if its signature would still verify.
func Authenticate(auth AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				Error(w, http.StatusUnauthorized, "Unauthorised: No token provided")
				return
			}

			user, err := auth.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, errs.ErrUnauthorized) {
					Error(w, http.StatusUnauthorized, "Unauthorised: Invalid token")
					return
				}
				// Store failures are not authentication failures.
				Error(w, http.StatusInternalServerError, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || user.Role != models.RoleAdmin {
			Error(w, http.StatusForbidden, "Forbidden: Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext extracts the authenticated user from the request context.
// Returns nil when the request is unauthenticated.
func UserFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}
