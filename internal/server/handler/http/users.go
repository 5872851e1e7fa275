package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// UserService defines the admin user-management operations required by the
// HTTP layer.
type UserService interface {
	List(ctx context.Context, p models.UserListParams) ([]models.User, models.Pagination, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, in models.UserInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsersHandler handles admin user management requests.
type UsersHandler struct {
	UserService   UserService
	BorrowService BorrowService
}

// List returns a filtered, sorted page of users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := models.UserListParams{
		Keyword:   q.Get("keyword"),
		Role:      optionalString(q.Get("role")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      intOr(q.Get("page"), 1),
		Limit:     intOr(q.Get("limit"), 0),
	}

	users, pagination, err := h.UserService.List(r.Context(), params)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []models.User{}
	}

	Success(w, http.StatusOK, "Users fetched successfully", pagedResponse{Items: users, Pagination: pagination})
}

// Get returns a single user.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "User")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "User fetched successfully", user)
}

// Create inserts a new user.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.UserService.Create(r.Context(), in)
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			ValidationFailed(w, ve.Fields)
			return
		}
		if errors.Is(err, errs.ErrEmailExists) {
			Error(w, http.StatusBadRequest, "Email already exists")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusCreated, "User created successfully", user)
}

// Update applies a partial update to a user.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var upd models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.UserService.Update(r.Context(), id, upd)
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			ValidationFailed(w, ve.Fields)
			return
		}
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "User")
			return
		}
		if errors.Is(err, errs.ErrEmailExists) {
			Error(w, http.StatusBadRequest, "Email already exists")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "User updated successfully", user)
}

// Delete removes a user.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "User")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "User deleted successfully", nil)
}

// BorrowHistory serves the admin ledger view anchored at a user.
func (h *UsersHandler) BorrowHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	serveHistory(w, r, h.BorrowService, models.HistoryAnchor{Kind: models.HistoryKindUser, ID: id}, "User")
}

// userID parses the {id} URL parameter, writing a validation error on failure.
func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		ValidationFailed(w, map[string]string{"id": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}
