package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// borrowingColumns is the scan order used by every borrowing SELECT.
const borrowingColumns = `id, user_id, book_id, borrow_date, due_date, return_date, comments, status, created_at, updated_at`

// BorrowingRepo implements BorrowingRepository using PostgreSQL.
type BorrowingRepo struct{ db *DB }

// NewBorrowingRepo constructs a borrowing repository.
func NewBorrowingRepo(db *DB) *BorrowingRepo { return &BorrowingRepo{db: db} }

func scanBorrowing(row pgx.Row) (*models.Borrowing, error) {
	var b models.Borrowing
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &b.DueDate,
		&b.ReturnDate, &b.Comments, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a new borrowing. The partial unique index on
// (user_id, book_id) WHERE status = 'active' makes the insert the atomic
// existence check for the at-most-one-active-borrow invariant.
func (r *BorrowingRepo) Create(ctx context.Context, b *models.Borrowing) error {
	const q = `
INSERT INTO borrowings (id, user_id, book_id, borrow_date, due_date, return_date, comments, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Pool.Exec(ctx, q, b.ID, b.UserID, b.BookID, b.BorrowDate,
		b.DueDate, b.ReturnDate, b.Comments, b.Status, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrDuplicateBorrow
	}
	return err
}

// HasActive reports whether an active borrowing exists for the pair.
func (r *BorrowingRepo) HasActive(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM borrowings
    WHERE user_id = $1 AND book_id = $2 AND status = 'active'
)`
	var exists bool
	err := r.db.Pool.QueryRow(ctx, q, userID, bookID).Scan(&exists)
	return exists, err
}

// Return transitions the pair's active borrowing to returned in a single
// update; no active record maps to errs.ErrNoActiveBorrow.
func (r *BorrowingRepo) Return(ctx context.Context, userID, bookID uuid.UUID, comments *string, at time.Time) (*models.Borrowing, error) {
	q := `
UPDATE borrowings
SET return_date = $3, status = 'returned', comments = COALESCE($4, comments), updated_at = $3
WHERE user_id = $1 AND book_id = $2 AND status = 'active'
RETURNING ` + borrowingColumns
	b, err := scanBorrowing(r.db.Pool.QueryRow(ctx, q, userID, bookID, at, comments))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrNoActiveBorrow
	}
	return b, err
}

// History returns a newest-created-first page of borrowings anchored at a
// book or user, each row enriched with the counterpart projection.
func (r *BorrowingRepo) History(ctx context.Context, anchor models.HistoryAnchor, offset, limit int) ([]models.BorrowingDetail, int64, error) {
	anchorCol := "b.book_id"
	if anchor.Kind == models.HistoryKindUser {
		anchorCol = "b.user_id"
	}

	countQ := `SELECT COUNT(*) FROM borrowings b WHERE ` + anchorCol + ` = $1`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQ, anchor.ID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
SELECT b.id, b.user_id, b.book_id, b.borrow_date, b.due_date, b.return_date, b.comments, b.status, b.created_at, b.updated_at,
       u.email, u.first_name, u.last_name,
       k.id, k.title
FROM borrowings b
LEFT JOIN users u ON u.id = b.user_id
LEFT JOIN books k ON k.id = b.book_id
WHERE ` + anchorCol + ` = $1
ORDER BY b.created_at DESC
OFFSET $2 LIMIT $3`

	rows, err := r.db.Pool.Query(ctx, q, anchor.ID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]models.BorrowingDetail, 0, limit)
	for rows.Next() {
		var d models.BorrowingDetail
		var email, firstName, lastName, title *string
		var bookID *uuid.UUID
		err := rows.Scan(&d.ID, &d.UserID, &d.BookID, &d.BorrowDate, &d.DueDate,
			&d.ReturnDate, &d.Comments, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&email, &firstName, &lastName, &bookID, &title)
		if err != nil {
			return nil, 0, err
		}
		if email != nil {
			d.User = &models.BorrowerInfo{Email: *email, FirstName: *firstName, LastName: *lastName}
		}
		if bookID != nil {
			d.Book = &models.BorrowedBookInfo{ID: *bookID, Title: *title}
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// TrendingBookIDs returns book ids ordered by recency of their most recent
// borrow event, one entry per book.
func (r *BorrowingRepo) TrendingBookIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	const q = `
SELECT book_id
FROM borrowings
GROUP BY book_id
ORDER BY MAX(borrow_date) DESC
LIMIT $1`
	return r.queryBookIDs(ctx, q, limit)
}

// HotBookIDs returns book ids by total historical borrow count descending,
// ties broken by earliest first borrow.
func (r *BorrowingRepo) HotBookIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	const q = `
SELECT book_id
FROM borrowings
GROUP BY book_id
ORDER BY COUNT(*) DESC, MIN(created_at) ASC
LIMIT $1`
	return r.queryBookIDs(ctx, q, limit)
}

func (r *BorrowingRepo) queryBookIDs(ctx context.Context, q string, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
