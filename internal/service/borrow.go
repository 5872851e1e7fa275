package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/repository"
)

// LoanPeriodDays is the fixed loan period. Not configurable per book or user.
const LoanPeriodDays = 14

// DueDate computes the due date for a loan starting at borrowDate. AddDate
// keeps the wall-clock time and is exact across month and leap-day boundaries.
func DueDate(borrowDate time.Time) time.Time {
	return borrowDate.AddDate(0, 0, LoanPeriodDays)
}

// BorrowService is the borrow ledger: it creates borrowings, transitions them
// to returned and serves the admin history view.
type BorrowService struct {
	users      repository.UserRepository
	books      repository.BookRepository
	borrowings repository.BorrowingRepository
	now        func() time.Time
}

// NewBorrowService constructs a BorrowService.
func NewBorrowService(
	users repository.UserRepository,
	books repository.BookRepository,
	borrowings repository.BorrowingRepository,
) *BorrowService {
	return &BorrowService{users: users, books: books, borrowings: borrowings, now: time.Now}
}

// Borrow records a new active borrowing for the (user, book) pair. The book
// must exist; a duplicate active borrowing fails with errs.ErrDuplicateBorrow.
// The pre-check only short-circuits the common case; the partial unique index
// behind the repository insert is the authority under concurrency.
func (s *BorrowService) Borrow(ctx context.Context, userID, bookID uuid.UUID, returnDate *time.Time, comments *string) (*models.Borrowing, error) {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	active, err := s.borrowings.HasActive(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, errs.ErrDuplicateBorrow
	}

	now := s.now().UTC()
	rec := &models.Borrowing{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    DueDate(now),
		ReturnDate: returnDate,
		Comments:   comments,
		Status:     models.BorrowStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.borrowings.Create(ctx, rec); err != nil {
		return nil, err
	}

	// Advisory flag only; the ledger stays the authority.
	_ = s.books.SetBorrowedFlag(ctx, bookID, true)

	return rec, nil
}

// Return transitions the pair's active borrowing to returned, setting the
// return date and merging comments when supplied.
func (s *BorrowService) Return(ctx context.Context, userID, bookID uuid.UUID, comments *string) (*models.Borrowing, error) {
	rec, err := s.borrowings.Return(ctx, userID, bookID, comments, s.now().UTC())
	if err != nil {
		return nil, err
	}

	// Advisory flag only; the ledger stays the authority.
	_ = s.books.SetBorrowedFlag(ctx, bookID, false)

	return rec, nil
}

// History returns a newest-created-first page of the ledger anchored at a
// book or user. The anchor kind is explicit; the anchor entity must exist.
func (s *BorrowService) History(ctx context.Context, anchor models.HistoryAnchor, page, limit int) ([]models.BorrowingDetail, models.Pagination, error) {
	page, limit = normalizePage(page, limit, 10)

	switch anchor.Kind {
	case models.HistoryKindBook:
		if _, err := s.books.GetByID(ctx, anchor.ID); err != nil {
			return nil, models.Pagination{}, err
		}
	case models.HistoryKindUser:
		if _, err := s.users.GetByID(ctx, anchor.ID); err != nil {
			return nil, models.Pagination{}, err
		}
	default:
		return nil, models.Pagination{}, &errs.ValidationError{
			Fields: map[string]string{"kind": "History anchor must be a book or a user"},
		}
	}

	items, total, err := s.borrowings.History(ctx, anchor, (page-1)*limit, limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return items, models.NewPagination(total, page, limit), nil
}

// normalizePage clamps page and limit to sane values.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}
