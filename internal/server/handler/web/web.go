// Package web serves the server-rendered book pages: landing shelves, the
// paginated catalog table and the add/edit/delete forms.
package web

import (
	"embed"
	"errors"
	"html/template"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/BookKeeper/internal/errs"
	"github.com/atinyakov/BookKeeper/internal/models"
	httphandler "github.com/atinyakov/BookKeeper/internal/server/handler/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// shelf sizes on the landing page.
const (
	highlightedShelfSize = 15
	shuffledShelfSize    = 6
	newBooksWindow       = 30 * 24 * time.Hour
)

// Handler renders the HTML surface on top of the catalog service.
type Handler struct {
	books httphandler.BookService
	log   *zap.Logger
	tmpl  *template.Template
}

// New parses the embedded templates and returns a ready Handler.
func New(books httphandler.BookService, log *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{books: books, log: log, tmpl: tmpl}, nil
}

// Routes returns the router for the HTML surface. Unmatched paths fall
// through to the envelope 404 so API clients probing wrong URLs still get
// the uniform shape.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Get("/", h.Index)
	r.Get("/books", h.Books)
	r.Get("/book/detail/{id}", h.Detail)
	r.Get("/book/add", h.AddForm)
	r.Post("/book/add", h.Add)
	r.Get("/book/edit/{id}", h.EditForm)
	r.Post("/book/edit/{id}", h.Edit)
	r.Post("/book/delete/{id}", h.Delete)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httphandler.NotFound(w, "Route")
	})

	return r
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

// Index renders the landing page shelves: highlighted books plus shuffled
// hot/trending picks and the newest arrivals.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	highlighted, _, err := h.books.List(ctx, models.BookListParams{
		IsHighlighted: boolPtr(true),
		Limit:         highlightedShelfSize,
	})
	if err != nil {
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	borrowed, _, err := h.books.List(ctx, models.BookListParams{
		IsBorrowed: boolPtr(true),
		Limit:      50,
	})
	if err != nil {
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	hot := shuffledTake(borrowed, shuffledShelfSize)

	since := time.Now().Add(-newBooksWindow)
	fresh, _, err := h.books.List(ctx, models.BookListParams{
		CreatedAfter: &since,
		Limit:        50,
	})
	if err != nil {
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	newBooks := fresh
	if len(newBooks) > shuffledShelfSize {
		newBooks = newBooks[:shuffledShelfSize]
	}
	trending := shuffledTake(fresh, shuffledShelfSize)

	h.render(w, "index.html", map[string]any{
		"Title":       "Online Library",
		"Highlighted": highlighted,
		"Hot":         hot,
		"Trending":    trending,
		"NewBooks":    newBooks,
	})
}

// Books renders the paginated catalog table.
func (h *Handler) Books(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intOr(q.Get("page"), 1)
	limit := intOr(q.Get("limit"), 15)

	books, pagination, err := h.books.List(r.Context(), models.BookListParams{Page: page, Limit: limit})
	if err != nil {
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.render(w, "books.html", map[string]any{
		"Title":      "All Books",
		"Books":      books,
		"Pagination": pagination,
	})
}

// Detail renders a single book page.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			httphandler.NotFound(w, "Book")
			return
		}
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.render(w, "book_detail.html", map[string]any{"Title": book.Title, "Book": book})
}

// AddForm renders the empty book form.
func (h *Handler) AddForm(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "book_form.html", map[string]any{"Title": "Add New Book", "Book": nil})
}

// Add creates a book from an HTML form submission.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httphandler.Error(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	in, fieldErr := bookInputFromForm(r)
	if fieldErr != "" {
		httphandler.Error(w, http.StatusBadRequest, fieldErr)
		return
	}

	book, err := h.books.Create(r.Context(), in)
	if err != nil {
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			httphandler.ValidationFailed(w, ve.Fields)
			return
		}
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, "/book/detail/"+book.ID.String(), http.StatusSeeOther)
}

// EditForm renders the book form pre-filled for editing.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			httphandler.NotFound(w, "Book")
			return
		}
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.render(w, "book_form.html", map[string]any{"Title": "Edit " + book.Title, "Book": book})
}

// Edit updates a book from an HTML form submission.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httphandler.Error(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	in, fieldErr := bookInputFromForm(r)
	if fieldErr != "" {
		httphandler.Error(w, http.StatusBadRequest, fieldErr)
		return
	}

	upd := models.BookUpdate{
		Title:         &in.Title,
		Author:        &in.Author,
		ISBN:          &in.ISBN,
		Year:          in.Year,
		Publisher:     in.Publisher,
		Category:      in.Category,
		Description:   in.Description,
		CoverImage:    in.CoverImage,
		Location:      in.Location,
		IsHighlighted: &in.IsHighlighted,
		IsBorrowed:    &in.IsBorrowed,
	}

	book, err := h.books.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			httphandler.NotFound(w, "Book")
			return
		}
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, "/book/detail/"+book.ID.String(), http.StatusSeeOther)
}

// Delete removes a book from a form submission.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			httphandler.NotFound(w, "Book")
			return
		}
		httphandler.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

func (h *Handler) bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httphandler.Error(w, http.StatusBadRequest, "Invalid book ID format")
		return uuid.Nil, false
	}
	return id, true
}

// bookInputFromForm maps the form fields onto a BookInput, returning a
// message for missing required fields or a bad year.
func bookInputFromForm(r *http.Request) (models.BookInput, string) {
	in := models.BookInput{
		Title:         r.FormValue("title"),
		Author:        r.FormValue("author"),
		ISBN:          r.FormValue("isbn"),
		Publisher:     formPtr(r, "publisher"),
		Category:      formPtr(r, "category"),
		Description:   formPtr(r, "description"),
		CoverImage:    formPtr(r, "coverImage"),
		Location:      formPtr(r, "location"),
		IsHighlighted: r.FormValue("isHighlighted") == "true",
		IsBorrowed:    r.FormValue("isBorrowed") == "true",
	}
	if in.Title == "" || in.Author == "" || in.ISBN == "" {
		return in, "Title, author, and ISBN are required fields"
	}

	if yearStr := r.FormValue("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 1000 || year > time.Now().Year()+1 {
			return in, "Invalid year format"
		}
		in.Year = &year
	}
	return in, ""
}

func formPtr(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}

func boolPtr(b bool) *bool { return &b }

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

// shuffledTake returns up to n books in random order without mutating the input.
func shuffledTake(books []models.Book, n int) []models.Book {
	out := make([]models.Book, len(books))
	copy(out, books)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
