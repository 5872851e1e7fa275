// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// UserRepository provides CRUD access for users and their session token set.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *models.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// EmailExists reports whether another user already owns the email.
	// exclude may be uuid.Nil to consider all users.
	EmailExists(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	// List returns a filtered, sorted page of users plus the total match count.
	List(ctx context.Context, p models.UserListParams) ([]models.User, int64, error)
	// Update applies a partial update and returns the updated user.
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	// Delete removes a user.
	Delete(ctx context.Context, id uuid.UUID) error
	// SetActive sets the advisory is_active flag.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// AddToken appends a token to the user's token set (no duplicate insertion).
	AddToken(ctx context.Context, id uuid.UUID, token string) error
	// RemoveToken deletes the token and returns its owner and the number of
	// tokens the owner still holds.
	RemoveToken(ctx context.Context, token string) (owner uuid.UUID, remaining int64, err error)
	// GetByToken loads the user whose token set contains the token.
	GetByToken(ctx context.Context, token string) (*models.User, error)
	// DeleteTokensBefore removes tokens issued before the cutoff and returns
	// how many were deleted.
	DeleteTokensBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BookRepository provides catalog access.
type BookRepository interface {
	// Create inserts a new book.
	Create(ctx context.Context, b *models.Book) error
	// GetByID loads a book by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	// IncrementViewCount bumps view_count and returns the updated book.
	IncrementViewCount(ctx context.Context, id uuid.UUID) (*models.Book, error)
	// List returns a filtered, sorted page of books plus the total match count.
	List(ctx context.Context, p models.BookListParams) ([]models.Book, int64, error)
	// ListLatest returns the newest books by creation time.
	ListLatest(ctx context.Context, limit int) ([]models.Book, error)
	// ListByIDs fetches books by id in no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
	// Update applies a partial update and returns the updated book.
	Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error)
	// Delete removes a book.
	Delete(ctx context.Context, id uuid.UUID) error
	// SetBorrowedFlag sets the advisory is_borrowed flag.
	SetBorrowedFlag(ctx context.Context, id uuid.UUID, borrowed bool) error
}

// BorrowingRepository provides access to the borrow ledger.
type BorrowingRepository interface {
	// Create inserts a new borrowing. A duplicate active borrowing for the
	// same (user, book) pair fails with errs.ErrDuplicateBorrow.
	Create(ctx context.Context, b *models.Borrowing) error
	// HasActive reports whether an active borrowing exists for the pair.
	HasActive(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	// Return transitions the pair's active borrowing to returned, setting
	// return_date and merging comments when supplied.
	Return(ctx context.Context, userID, bookID uuid.UUID, comments *string, at time.Time) (*models.Borrowing, error)
	// History returns a newest-created-first page of borrowings anchored at a
	// book or user, enriched with counterpart projections, plus the total count.
	History(ctx context.Context, anchor models.HistoryAnchor, offset, limit int) ([]models.BorrowingDetail, int64, error)
	// TrendingBookIDs returns book ids ordered by recency of their most
	// recent borrow event, one entry per book.
	TrendingBookIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// HotBookIDs returns book ids ordered by total historical borrow count
	// descending, ties broken by earliest first borrow.
	HotBookIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}
