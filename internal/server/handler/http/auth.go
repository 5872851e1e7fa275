package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// AuthService defines the authentication operations required by the HTTP layer.
type AuthService interface {
	// Login verifies credentials and issues a session token.
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	// Validate resolves a token to its owner by set membership.
	Validate(ctx context.Context, token string) (*models.User, error)
	// Logout revokes a token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles login and logout requests.
type AuthHandler struct {
	AuthService AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login authenticates an email/password pair and returns the issued token
// together with the sanitized user record.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			ValidationFailed(w, ve.Fields)
			return
		}
		if errors.Is(err, errs.ErrUnauthorized) {
			Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Login successful", loginResponse{Token: token, User: user})
}

// Logout revokes the presented bearer token. Revoking the owner's last token
// clears the owner's active flag.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ExtractToken(r)
	if token == "" {
		Error(w, http.StatusBadRequest, "No token provided")
		return
	}

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Logout successful", nil)
}
