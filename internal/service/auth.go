// Package service provides the business logic for authentication, the
// catalog, the borrow ledger and user administration, delegating persistence
// to repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/BookKeeper/internal/crypto"
	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/repository"
)

// TokenTTL is the lifetime embedded in issued tokens. A token remains valid
// while it is present in the owner's token set; the embedded expiry is not
// cross-checked on validation.
const TokenTTL = 24 * time.Hour

// Claims is the token payload: a sanitized copy of the user record.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements login, logout and token validation.
type AuthService struct {
	users   repository.UserRepository
	signKey []byte
	now     func() time.Time
}

// NewAuthService constructs an AuthService signing tokens with signKey.
func NewAuthService(users repository.UserRepository, signKey []byte) *AuthService {
	return &AuthService{users: users, signKey: signKey, now: time.Now}
}

// Login verifies credentials, marks the user active, issues a token and
// appends it to the user's token set. Returns the token and the refreshed
// sanitized user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Email is required"
	}
	if strings.TrimSpace(password) == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return "", nil, &errs.ValidationError{Fields: fields}
	}

	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil, errs.ErrUnauthorized
		}
		return "", nil, err
	}
	if !crypto.VerifyPassword(password, u.PasswordHash) {
		return "", nil, errs.ErrUnauthorized
	}

	if err := s.users.SetActive(ctx, u.ID, true); err != nil {
		return "", nil, err
	}

	token, err := s.issue(u)
	if err != nil {
		return "", nil, err
	}
	if err := s.users.AddToken(ctx, u.ID, token); err != nil {
		return "", nil, err
	}

	updated, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, updated, nil
}

// issue produces a signed HS256 token carrying the sanitized user record.
func (s *AuthService) issue(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.signKey)
}

// Validate resolves a token to its owner by set membership. Membership is the
// sole validity criterion. Side effect: the owner is marked active.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.User, error) {
	u, err := s.users.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.users.SetActive(ctx, u.ID, true); err != nil {
		return nil, err
	}
	u.IsActive = true
	return u, nil
}

// Logout revokes the token. When the owner's token set becomes empty, the
// owner's active flag is cleared.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	owner, remaining, err := s.users.RemoveToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}
	if remaining == 0 {
		if err := s.users.SetActive(ctx, owner, false); err != nil && !errors.Is(err, errs.ErrNotFound) {
			return err
		}
	}
	return nil
}

// ParseClaims decodes and verifies a token signature, returning the embedded
// sanitized user claims. Not used for session validity (membership is), only
// for callers that need the strict embedded expiry as well.
func (s *AuthService) ParseClaims(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errs.ErrUnauthorized
	}
	return claims, nil
}
