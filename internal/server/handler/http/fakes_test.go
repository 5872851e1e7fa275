package http

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// fakeAuthService stubs AuthService with function fields.
type fakeAuthService struct {
	LoginFunc    func(ctx context.Context, email, password string) (string, *models.User, error)
	ValidateFunc func(ctx context.Context, token string) (*models.User, error)
	LogoutFunc   func(ctx context.Context, token string) error
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	return f.LoginFunc(ctx, email, password)
}

func (f *fakeAuthService) Validate(ctx context.Context, token string) (*models.User, error) {
	if f.ValidateFunc == nil {
		return nil, errs.ErrUnauthorized
	}
	return f.ValidateFunc(ctx, token)
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	return f.LogoutFunc(ctx, token)
}

// fakeBookService stubs BookService with function fields.
type fakeBookService struct {
	ListFunc     func(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error)
	HomepageFunc func(ctx context.Context) (*models.HomepageBooks, error)
	GetFunc      func(ctx context.Context, id uuid.UUID) (*models.Book, error)
	CreateFunc   func(ctx context.Context, in models.BookInput) (*models.Book, error)
	UpdateFunc   func(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error)
	DeleteFunc   func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeBookService) List(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error) {
	return f.ListFunc(ctx, p)
}

func (f *fakeBookService) Homepage(ctx context.Context) (*models.HomepageBooks, error) {
	return f.HomepageFunc(ctx)
}

func (f *fakeBookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return f.GetFunc(ctx, id)
}

func (f *fakeBookService) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	return f.CreateFunc(ctx, in)
}

func (f *fakeBookService) Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	return f.UpdateFunc(ctx, id, upd)
}

func (f *fakeBookService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.DeleteFunc(ctx, id)
}

// fakeBorrowService stubs BorrowService with function fields.
type fakeBorrowService struct {
	BorrowFunc  func(ctx context.Context, userID, bookID uuid.UUID, returnDate *time.Time, comments *string) (*models.Borrowing, error)
	ReturnFunc  func(ctx context.Context, userID, bookID uuid.UUID, comments *string) (*models.Borrowing, error)
	HistoryFunc func(ctx context.Context, anchor models.HistoryAnchor, page, limit int) ([]models.BorrowingDetail, models.Pagination, error)
}

func (f *fakeBorrowService) Borrow(ctx context.Context, userID, bookID uuid.UUID, returnDate *time.Time, comments *string) (*models.Borrowing, error) {
	return f.BorrowFunc(ctx, userID, bookID, returnDate, comments)
}

func (f *fakeBorrowService) Return(ctx context.Context, userID, bookID uuid.UUID, comments *string) (*models.Borrowing, error) {
	return f.ReturnFunc(ctx, userID, bookID, comments)
}

func (f *fakeBorrowService) History(ctx context.Context, anchor models.HistoryAnchor, page, limit int) ([]models.BorrowingDetail, models.Pagination, error) {
	return f.HistoryFunc(ctx, anchor, page, limit)
}

// fakeUserService stubs UserService with function fields.
type fakeUserService struct {
	ListFunc   func(ctx context.Context, p models.UserListParams) ([]models.User, models.Pagination, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateFunc func(ctx context.Context, in models.UserInput) (*models.User, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeUserService) List(ctx context.Context, p models.UserListParams) ([]models.User, models.Pagination, error) {
	return f.ListFunc(ctx, p)
}

func (f *fakeUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.GetFunc(ctx, id)
}

func (f *fakeUserService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	return f.CreateFunc(ctx, in)
}

func (f *fakeUserService) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	return f.UpdateFunc(ctx, id, upd)
}

func (f *fakeUserService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.DeleteFunc(ctx, id)
}

// memberValidator returns a ValidateFunc accepting exactly the given token.
func memberValidator(token string, user *models.User) func(context.Context, string) (*models.User, error) {
	return func(_ context.Context, got string) (*models.User, error) {
		if got == token {
			return user, nil
		}
		return nil, errs.ErrUnauthorized
	}
}
