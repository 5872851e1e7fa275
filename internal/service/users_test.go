package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/BookKeeper/internal/crypto"
	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name       string
		in         models.UserInput
		wantErr    error
		wantFields []string
	}{
		{
			name: "success default role",
			in: models.UserInput{
				Email:     "reader@example.com",
				Password:  "hunter22",
				FirstName: "Paul",
				LastName:  "Atreides",
			},
		},
		{
			name: "success admin role",
			in: models.UserInput{
				Email:     "admin@example.com",
				Password:  "hunter22",
				FirstName: "Gaius",
				LastName:  "Mohiam",
				Role:      models.RoleAdmin,
			},
		},
		{
			name: "short password",
			in: models.UserInput{
				Email:     "reader@example.com",
				Password:  "abc",
				FirstName: "Paul",
				LastName:  "Atreides",
			},
			wantFields: []string{"password"},
		},
		{
			name: "bad role",
			in: models.UserInput{
				Email:     "reader@example.com",
				Password:  "hunter22",
				FirstName: "Paul",
				LastName:  "Atreides",
				Role:      "librarian",
			},
			wantFields: []string{"role"},
		},
		{
			name:       "missing everything",
			in:         models.UserInput{},
			wantFields: []string{"email", "password", "firstName", "lastName"},
		},
		{
			name: "duplicate email",
			in: models.UserInput{
				Email:     "taken@example.com",
				Password:  "hunter22",
				FirstName: "Paul",
				LastName:  "Atreides",
			},
			wantErr: errs.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			repo.add(&models.User{ID: uuid.New(), Email: "taken@example.com"})
			svc := NewUserService(repo)

			user, err := svc.Create(context.Background(), tt.in)

			if len(tt.wantFields) > 0 {
				ve, ok := errs.AsValidation(err)
				require.True(t, ok, "expected a validation error, got %v", err)
				for _, f := range tt.wantFields {
					assert.Contains(t, ve.Fields, f)
				}
				return
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			wantRole := tt.in.Role
			if wantRole == "" {
				wantRole = models.RoleUser
			}
			assert.Equal(t, wantRole, user.Role)
			assert.True(t, user.IsActive)

			// stored as a bcrypt hash, never the plaintext
			assert.NotEqual(t, tt.in.Password, user.PasswordHash)
			assert.True(t, crypto.VerifyPassword(tt.in.Password, user.PasswordHash))
		})
	}
}

func TestUserService_Update(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.add(&models.User{ID: uuid.New(), Email: "reader@example.com", FirstName: "Paul", Role: models.RoleUser})
	repo.add(&models.User{ID: uuid.New(), Email: "taken@example.com"})
	svc := NewUserService(repo)

	t.Run("partial update", func(t *testing.T) {
		first := "Muad'Dib"
		got, err := svc.Update(context.Background(), u.ID, models.UserUpdate{FirstName: &first})
		require.NoError(t, err)
		assert.Equal(t, "Muad'Dib", got.FirstName)
		assert.Equal(t, "reader@example.com", got.Email)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		email := "taken@example.com"
		_, err := svc.Update(context.Background(), u.ID, models.UserUpdate{Email: &email})
		assert.ErrorIs(t, err, errs.ErrEmailExists)
	})

	t.Run("keeping own email is fine", func(t *testing.T) {
		email := "reader@example.com"
		_, err := svc.Update(context.Background(), u.ID, models.UserUpdate{Email: &email})
		assert.NoError(t, err)
	})

	t.Run("bad role", func(t *testing.T) {
		role := "librarian"
		_, err := svc.Update(context.Background(), u.ID, models.UserUpdate{Role: &role})
		ve, ok := errs.AsValidation(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "role")
	})

	t.Run("unknown user", func(t *testing.T) {
		first := "X"
		_, err := svc.Update(context.Background(), uuid.New(), models.UserUpdate{FirstName: &first})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	repo := newFakeUserRepo()
	u := repo.add(&models.User{ID: uuid.New(), Email: "reader@example.com"})
	svc := NewUserService(repo)

	require.NoError(t, svc.Delete(context.Background(), u.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), u.ID), errs.ErrNotFound)
}

func TestUserService_List(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&models.User{ID: uuid.New(), Email: "a@example.com"})
	repo.add(&models.User{ID: uuid.New(), Email: "b@example.com"})
	svc := NewUserService(repo)

	users, pagination, err := svc.List(context.Background(), models.UserListParams{})
	require.NoError(t, err)

	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.CurrentPage)
	assert.Equal(t, defaultUserPageSize, pagination.Limit)
	assert.Equal(t, int64(2), pagination.Total)
}
