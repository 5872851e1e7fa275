package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/repository"
)

// homepageListSize is the length of each curated landing-page list.
const homepageListSize = 6

// defaultBookPageSize is the catalog listing default.
const defaultBookPageSize = 6

// BookService is the catalog query layer plus book CRUD.
type BookService struct {
	books      repository.BookRepository
	borrowings repository.BorrowingRepository
	now        func() time.Time
}

// NewBookService constructs a BookService.
func NewBookService(books repository.BookRepository, borrowings repository.BorrowingRepository) *BookService {
	return &BookService{books: books, borrowings: borrowings, now: time.Now}
}

// List returns a filtered, sorted page of the catalog. Pages past the end
// yield an empty item list without error.
func (s *BookService) List(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error) {
	p.Page, p.Limit = normalizePage(p.Page, p.Limit, defaultBookPageSize)

	books, total, err := s.books.List(ctx, p)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return books, models.NewPagination(total, p.Page, p.Limit), nil
}

// Homepage computes the three curated lists. Trending and hot orderings come
// from the ledger aggregation; book rows fetched by id carry no order
// guarantee, so the ledger-derived order is reconstructed afterwards.
func (s *BookService) Homepage(ctx context.Context) (*models.HomepageBooks, error) {
	latest, err := s.books.ListLatest(ctx, homepageListSize)
	if err != nil {
		return nil, err
	}

	trending, err := s.booksInLedgerOrder(ctx, s.borrowings.TrendingBookIDs)
	if err != nil {
		return nil, err
	}

	hot, err := s.booksInLedgerOrder(ctx, s.borrowings.HotBookIDs)
	if err != nil {
		return nil, err
	}

	return &models.HomepageBooks{
		Latest:   emptyNotNil(latest),
		Trending: trending,
		Hot:      hot,
	}, nil
}

// booksInLedgerOrder fetches the books named by a ledger aggregation and
// re-orders them to match the aggregation result.
func (s *BookService) booksInLedgerOrder(ctx context.Context, idsFn func(context.Context, int) ([]uuid.UUID, error)) ([]models.Book, error) {
	ids, err := idsFn(ctx, homepageListSize)
	if err != nil {
		return nil, err
	}
	fetched, err := s.books.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Book, len(fetched))
	for _, b := range fetched {
		byID[b.ID] = b
	}

	ordered := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// Get loads a book and increments its view count atomically.
func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.books.IncrementViewCount(ctx, id)
}

// Create validates and normalizes the input, then inserts the book.
func (s *BookService) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(in.Author) == "" {
		fields["author"] = "Author is required"
	}
	if strings.TrimSpace(in.ISBN) == "" {
		fields["isbn"] = "ISBN is required"
	}
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Fields: fields}
	}

	now := s.now().UTC()
	b := &models.Book{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		ISBN:          strings.TrimSpace(in.ISBN),
		Year:          in.Year,
		Publisher:     trimPtr(in.Publisher),
		Category:      trimPtr(in.Category),
		Description:   trimPtr(in.Description),
		CoverImage:    trimPtr(in.CoverImage),
		Location:      trimPtr(in.Location),
		IsHighlighted: in.IsHighlighted,
		IsBorrowed:    in.IsBorrowed,
		ViewCount:     0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies a partial update. Fields provided but blank where a value is
// required fail validation.
func (s *BookService) Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	fields := map[string]string{}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		fields["title"] = "Title is required"
	}
	if upd.Author != nil && strings.TrimSpace(*upd.Author) == "" {
		fields["author"] = "Author is required"
	}
	if upd.ISBN != nil && strings.TrimSpace(*upd.ISBN) == "" {
		fields["isbn"] = "ISBN is required"
	}
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Fields: fields}
	}

	upd.Title = trimPtr(upd.Title)
	upd.Author = trimPtr(upd.Author)
	upd.ISBN = trimPtr(upd.ISBN)

	return s.books.Update(ctx, id, upd)
}

// Delete removes a book from the catalog. Ledger records referencing it go
// with it (store cascade); history anchored at other entities is unaffected.
func (s *BookService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.books.Delete(ctx, id)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func emptyNotNil(books []models.Book) []models.Book {
	if books == nil {
		return []models.Book{}
	}
	return books
}
