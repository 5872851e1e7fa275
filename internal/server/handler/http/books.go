package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// BookService defines the catalog operations required by the HTTP layer.
type BookService interface {
	List(ctx context.Context, p models.BookListParams) ([]models.Book, models.Pagination, error)
	Homepage(ctx context.Context) (*models.HomepageBooks, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Book, error)
	Create(ctx context.Context, in models.BookInput) (*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BorrowService defines the ledger operations required by the HTTP layer.
type BorrowService interface {
	Borrow(ctx context.Context, userID, bookID uuid.UUID, returnDate *time.Time, comments *string) (*models.Borrowing, error)
	Return(ctx context.Context, userID, bookID uuid.UUID, comments *string) (*models.Borrowing, error)
	History(ctx context.Context, anchor models.HistoryAnchor, page, limit int) ([]models.BorrowingDetail, models.Pagination, error)
}

// BooksHandler handles catalog and borrowing requests.
type BooksHandler struct {
	BookService   BookService
	BorrowService BorrowService
}

// pagedResponse is the {items, pagination} list shape.
type pagedResponse struct {
	Items      any               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// List serves the general catalog listing and the ?homepage=true composite.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("homepage") == "true" {
		home, err := h.BookService.Homepage(r.Context())
		if err != nil {
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		Success(w, http.StatusOK, "Homepage books fetched successfully", home)
		return
	}

	q := r.URL.Query()
	params := models.BookListParams{
		Keyword:       q.Get("keyword"),
		Category:      optionalString(q.Get("category")),
		Location:      optionalString(q.Get("location")),
		IsHighlighted: optionalBool(q.Get("isHighlighted")),
		IsBorrowed:    optionalBool(q.Get("isBorrowed")),
		SortBy:        q.Get("sortBy"),
		SortOrder:     q.Get("sortOrder"),
		Page:          intOr(q.Get("page"), 1),
		Limit:         intOr(q.Get("limit"), 0),
	}

	books, pagination, err := h.BookService.List(r.Context(), params)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if books == nil {
		books = []models.Book{}
	}

	Success(w, http.StatusOK, "Books fetched successfully", pagedResponse{Items: books, Pagination: pagination})
}

// Get fetches a single book and increments its view count.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.BookService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "Book")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Book fetched successfully", book)
}

type bookCreatedResponse struct {
	BookID uuid.UUID `json:"bookId"`
}

// Create inserts a new catalog entry.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := h.BookService.Create(r.Context(), in)
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			ValidationFailed(w, ve.Fields)
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusCreated, "Book created successfully", bookCreatedResponse{BookID: book.ID})
}

// Update applies a partial update to a book.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var upd models.BookUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	book, err := h.BookService.Update(r.Context(), id, upd)
	if err != nil {
		if ve, ok := errs.AsValidation(err); ok {
			ValidationFailed(w, ve.Fields)
			return
		}
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "Book")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Book updated successfully", book)
}

// Delete removes a book.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.BookService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, "Book")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Book deleted successfully", nil)
}

type borrowRequest struct {
	ReturnDate *time.Time `json:"returnDate"`
	Comments   *string    `json:"comments"`
}

// Borrow opens an active borrowing for the caller on the book.
func (h *BooksHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	user := UserFromContext(r.Context())

	var req borrowRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	rec, err := h.BorrowService.Borrow(r.Context(), user.ID, id, req.ReturnDate, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			NotFound(w, "Book")
		case errors.Is(err, errs.ErrDuplicateBorrow):
			Error(w, http.StatusBadRequest, "You already have an active borrow for this book")
		default:
			Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	Success(w, http.StatusCreated, "Book borrowed successfully", rec)
}

type returnRequest struct {
	Comments *string `json:"comments"`
}

// Return closes the caller's active borrowing on the book.
func (h *BooksHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	user := UserFromContext(r.Context())

	var req returnRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	rec, err := h.BorrowService.Return(r.Context(), user.ID, id, req.Comments)
	if err != nil {
		if errors.Is(err, errs.ErrNoActiveBorrow) {
			Error(w, http.StatusBadRequest, "No active borrow found for this book")
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	Success(w, http.StatusOK, "Book returned successfully", rec)
}

// BorrowHistory serves the admin ledger view anchored at a book.
func (h *BooksHandler) BorrowHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	serveHistory(w, r, h.BorrowService, models.HistoryAnchor{Kind: models.HistoryKindBook, ID: id}, "Book")
}

// serveHistory is shared by the book- and user-anchored history endpoints.
func serveHistory(w http.ResponseWriter, r *http.Request, svc BorrowService, anchor models.HistoryAnchor, resource string) {
	q := r.URL.Query()
	page := intOr(q.Get("page"), 1)
	limit := intOr(q.Get("limit"), 10)

	items, pagination, err := svc.History(r.Context(), anchor, page, limit)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			NotFound(w, resource)
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []models.BorrowingDetail{}
	}

	Success(w, http.StatusOK, "Borrow history fetched successfully", pagedResponse{Items: items, Pagination: pagination})
}

// bookID parses the {id} URL parameter, writing a validation error on failure.
func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		ValidationFailed(w, map[string]string{"id": "Invalid book ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

func intOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
