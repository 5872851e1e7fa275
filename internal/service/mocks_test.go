package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users  map[uuid.UUID]*models.User
	tokens map[string]uuid.UUID

	setActiveCalls []bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  map[uuid.UUID]*models.User{},
		tokens: map[string]uuid.UUID{},
	}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return errs.ErrEmailExists
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string, exclude uuid.UUID) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && u.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) List(_ context.Context, _ models.UserListParams) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.IsActive = active
	f.setActiveCalls = append(f.setActiveCalls, active)
	return nil
}

func (f *fakeUserRepo) AddToken(_ context.Context, id uuid.UUID, token string) error {
	f.tokens[token] = id
	return nil
}

func (f *fakeUserRepo) RemoveToken(_ context.Context, token string) (uuid.UUID, int64, error) {
	owner, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, 0, errs.ErrNotFound
	}
	delete(f.tokens, token)
	var remaining int64
	for _, id := range f.tokens {
		if id == owner {
			remaining++
		}
	}
	return owner, remaining, nil
}

func (f *fakeUserRepo) GetByToken(_ context.Context, token string) (*models.User, error) {
	owner, ok := f.tokens[token]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return f.GetByID(context.Background(), owner)
}

func (f *fakeUserRepo) DeleteTokensBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// fakeBookRepo is an in-memory BookRepository.
type fakeBookRepo struct {
	books map[uuid.UUID]*models.Book

	listBooks []models.Book
	listTotal int64

	latest []models.Book

	borrowedFlags map[uuid.UUID]bool
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{
		books:         map[uuid.UUID]*models.Book{},
		borrowedFlags: map[uuid.UUID]bool{},
	}
}

func (f *fakeBookRepo) add(b *models.Book) *models.Book {
	f.books[b.ID] = b
	return b
}

func (f *fakeBookRepo) Create(_ context.Context, b *models.Book) error {
	f.books[b.ID] = b
	return nil
}

func (f *fakeBookRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookRepo) IncrementViewCount(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	b.ViewCount++
	cp := *b
	return &cp, nil
}

func (f *fakeBookRepo) List(_ context.Context, _ models.BookListParams) ([]models.Book, int64, error) {
	return f.listBooks, f.listTotal, nil
}

func (f *fakeBookRepo) ListLatest(_ context.Context, limit int) ([]models.Book, error) {
	if len(f.latest) > limit {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

func (f *fakeBookRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Book, error) {
	out := make([]models.Book, 0, len(ids))
	// deliberately iterate the map so the order differs from ids
	for _, b := range f.books {
		for _, id := range ids {
			if b.ID == id {
				out = append(out, *b)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeBookRepo) Update(_ context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.ISBN != nil {
		b.ISBN = *upd.ISBN
	}
	if upd.IsBorrowed != nil {
		b.IsBorrowed = *upd.IsBorrowed
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.books[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookRepo) SetBorrowedFlag(_ context.Context, id uuid.UUID, borrowed bool) error {
	f.borrowedFlags[id] = borrowed
	if b, ok := f.books[id]; ok {
		b.IsBorrowed = borrowed
	}
	return nil
}

// fakeBorrowingRepo is an in-memory BorrowingRepository.
type fakeBorrowingRepo struct {
	records []*models.Borrowing

	history      []models.BorrowingDetail
	historyTotal int64
	lastOffset   int
	lastLimit    int

	trendingIDs []uuid.UUID
	hotIDs      []uuid.UUID
}

func newFakeBorrowingRepo() *fakeBorrowingRepo {
	return &fakeBorrowingRepo{}
}

func (f *fakeBorrowingRepo) Create(_ context.Context, b *models.Borrowing) error {
	for _, r := range f.records {
		if r.UserID == b.UserID && r.BookID == b.BookID && r.Status == models.BorrowStatusActive {
			return errs.ErrDuplicateBorrow
		}
	}
	f.records = append(f.records, b)
	return nil
}

func (f *fakeBorrowingRepo) HasActive(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	for _, r := range f.records {
		if r.UserID == userID && r.BookID == bookID && r.Status == models.BorrowStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBorrowingRepo) Return(_ context.Context, userID, bookID uuid.UUID, comments *string, at time.Time) (*models.Borrowing, error) {
	for _, r := range f.records {
		if r.UserID == userID && r.BookID == bookID && r.Status == models.BorrowStatusActive {
			r.Status = models.BorrowStatusReturned
			r.ReturnDate = &at
			r.UpdatedAt = at
			if comments != nil {
				r.Comments = comments
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, errs.ErrNoActiveBorrow
}

func (f *fakeBorrowingRepo) History(_ context.Context, _ models.HistoryAnchor, offset, limit int) ([]models.BorrowingDetail, int64, error) {
	f.lastOffset = offset
	f.lastLimit = limit
	return f.history, f.historyTotal, nil
}

func (f *fakeBorrowingRepo) TrendingBookIDs(_ context.Context, _ int) ([]uuid.UUID, error) {
	return f.trendingIDs, nil
}

func (f *fakeBorrowingRepo) HotBookIDs(_ context.Context, _ int) ([]uuid.UUID, error) {
	return f.hotIDs, nil
}
