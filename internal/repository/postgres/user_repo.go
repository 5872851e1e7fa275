package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// userColumns is the scan order used by every user SELECT.
const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

// userSortColumns whitelists sortable fields against their column names.
var userSortColumns = map[string]string{
	"email":     "email",
	"firstName": "first_name",
	"lastName":  "last_name",
	"role":      "role",
	"isActive":  "is_active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	const q = `
INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PasswordHash, u.FirstName,
		u.LastName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrEmailExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// EmailExists reports whether a user other than exclude owns the email.
func (r *UserRepo) EmailExists(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var exists bool
	err := r.db.Pool.QueryRow(ctx, q, email, exclude).Scan(&exists)
	return exists, err
}

// List returns a filtered page of users and the total match count.
func (r *UserRepo) List(ctx context.Context, p models.UserListParams) ([]models.User, int64, error) {
	exprs := make([]goqu.Expression, 0, 2)
	if p.Keyword != "" {
		pattern := "%" + p.Keyword + "%"
		exprs = append(exprs, goqu.Or(
			goqu.C("email").ILike(pattern),
			goqu.C("first_name").ILike(pattern),
			goqu.C("last_name").ILike(pattern),
		))
	}
	if p.Role != nil {
		exprs = append(exprs, goqu.C("role").Eq(*p.Role))
	}

	base := goqu.Dialect("postgres").From("users").Where(exprs...)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := userSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	order := goqu.I(col).Desc()
	if p.SortOrder == "asc" {
		order = goqu.I(col).Asc()
	}

	offset := (p.Page - 1) * p.Limit
	listSQL, listArgs, err := base.
		Select(goqu.L(userColumns)).
		Order(order).
		Offset(uint(offset)).
		Limit(uint(p.Limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0, p.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Update applies the non-nil fields of upd and returns the updated user.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	rec := goqu.Record{"updated_at": time.Now().UTC()}
	if upd.Email != nil {
		rec["email"] = *upd.Email
	}
	if upd.FirstName != nil {
		rec["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		rec["last_name"] = *upd.LastName
	}
	if upd.Role != nil {
		rec["role"] = *upd.Role
	}

	q, args, err := goqu.Dialect("postgres").
		Update("users").
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(userColumns)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, args...))
	if isUniqueViolation(err) {
		return nil, errs.ErrEmailExists
	}
	return u, err
}

// Delete removes a user row.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM users WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetActive sets the advisory is_active flag.
func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	const q = `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// AddToken appends a token to the user's token set. Re-adding an existing
// token is a no-op (set semantics).
func (r *UserRepo) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	const q = `
INSERT INTO user_tokens (user_id, token) VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, id, token)
	return err
}

// RemoveToken deletes the token and reports its owner and how many tokens the
// owner still holds.
func (r *UserRepo) RemoveToken(ctx context.Context, token string) (uuid.UUID, int64, error) {
	const del = `DELETE FROM user_tokens WHERE token = $1 RETURNING user_id`
	var owner uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, del, token).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, 0, errs.ErrNotFound
		}
		return uuid.Nil, 0, err
	}

	const count = `SELECT COUNT(*) FROM user_tokens WHERE user_id = $1`
	var remaining int64
	if err := r.db.Pool.QueryRow(ctx, count, owner).Scan(&remaining); err != nil {
		return uuid.Nil, 0, err
	}
	return owner, remaining, nil
}

// GetByToken selects the user whose token set contains the token.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (*models.User, error) {
	q := `
SELECT ` + userColumns + `
FROM users
WHERE id = (SELECT user_id FROM user_tokens WHERE token = $1)`
	return scanUser(r.db.Pool.QueryRow(ctx, q, token))
}

// DeleteTokensBefore removes tokens issued before the cutoff.
func (r *UserRepo) DeleteTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM user_tokens WHERE created_at < $1`
	tag, err := r.db.Pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
