package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/crypto"
	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/repository"
)

// defaultUserPageSize is the admin user listing default.
const defaultUserPageSize = 10

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 6

// UserService implements admin user management.
type UserService struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// List returns a filtered, sorted page of users.
func (s *UserService) List(ctx context.Context, p models.UserListParams) ([]models.User, models.Pagination, error) {
	p.Page, p.Limit = normalizePage(p.Page, p.Limit, defaultUserPageSize)

	users, total, err := s.users.List(ctx, p)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return users, models.NewPagination(total, p.Page, p.Limit), nil
}

// Get loads a single user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create validates the input, hashes the password and inserts the user with
// an empty token set.
func (s *UserService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "Email is required"
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = "Password is required and must be at least 6 characters"
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		fields["role"] = `Role must be either "user" or "admin"`
	}
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Fields: fields}
	}

	exists, err := s.users.EmailExists(ctx, strings.TrimSpace(in.Email), uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.ErrEmailExists
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies a partial update, re-checking email uniqueness when the
// email changes.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	fields := map[string]string{}
	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		fields["email"] = "Email is required"
	}
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if upd.LastName != nil && strings.TrimSpace(*upd.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}
	if upd.Role != nil && *upd.Role != models.RoleUser && *upd.Role != models.RoleAdmin {
		fields["role"] = `Role must be either "user" or "admin"`
	}
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Fields: fields}
	}

	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		upd.Email = &email
		if email != existing.Email {
			exists, err := s.users.EmailExists(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, errs.ErrEmailExists
			}
		}
	}
	upd.FirstName = trimPtr(upd.FirstName)
	upd.LastName = trimPtr(upd.LastName)

	return s.users.Update(ctx, id, upd)
}

// Delete removes a user and, via cascade, their tokens.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
