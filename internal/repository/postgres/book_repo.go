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

// bookColumns is the scan order used by every book SELECT.
const bookColumns = `id, title, author, isbn, year, publisher, category, description, cover_image, location, is_highlighted, is_borrowed, view_count, created_at, updated_at`

// bookSortColumns whitelists sortable fields against their column names.
var bookSortColumns = map[string]string{
	"title":         "title",
	"author":        "author",
	"isbn":          "isbn",
	"year":          "year",
	"publisher":     "publisher",
	"category":      "category",
	"location":      "location",
	"isHighlighted": "is_highlighted",
	"isBorrowed":    "is_borrowed",
	"viewCount":     "view_count",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

// BookRepo implements BookRepository using PostgreSQL.
type BookRepo struct{ db *DB }

// NewBookRepo constructs a book repository.
func NewBookRepo(db *DB) *BookRepo { return &BookRepo{db: db} }

func scanBook(row pgx.Row) (*models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Year, &b.Publisher,
		&b.Category, &b.Description, &b.CoverImage, &b.Location,
		&b.IsHighlighted, &b.IsBorrowed, &b.ViewCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) queryBooks(ctx context.Context, q string, args ...any) ([]models.Book, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// Create inserts a new book row.
func (r *BookRepo) Create(ctx context.Context, b *models.Book) error {
	const q = `
INSERT INTO books (id, title, author, isbn, year, publisher, category, description, cover_image, location, is_highlighted, is_borrowed, view_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.Pool.Exec(ctx, q, b.ID, b.Title, b.Author, b.ISBN, b.Year,
		b.Publisher, b.Category, b.Description, b.CoverImage, b.Location,
		b.IsHighlighted, b.IsBorrowed, b.ViewCount, b.CreatedAt, b.UpdatedAt)
	return err
}

// GetByID selects a book by ID.
func (r *BookRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.db.Pool.QueryRow(ctx, q, id))
}

// IncrementViewCount bumps view_count atomically and returns the updated book.
func (r *BookRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	q := `
UPDATE books SET view_count = view_count + 1, updated_at = now()
WHERE id = $1
RETURNING ` + bookColumns
	return scanBook(r.db.Pool.QueryRow(ctx, q, id))
}

// List returns a filtered page of books and the total match count.
func (r *BookRepo) List(ctx context.Context, p models.BookListParams) ([]models.Book, int64, error) {
	exprs := make([]goqu.Expression, 0, 5)
	if p.Keyword != "" {
		pattern := "%" + p.Keyword + "%"
		exprs = append(exprs, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("isbn").ILike(pattern),
			goqu.C("description").ILike(pattern),
		))
	}
	if p.Category != nil {
		exprs = append(exprs, goqu.C("category").Eq(*p.Category))
	}
	if p.Location != nil {
		exprs = append(exprs, goqu.C("location").Eq(*p.Location))
	}
	if p.IsHighlighted != nil {
		exprs = append(exprs, goqu.C("is_highlighted").Eq(*p.IsHighlighted))
	}
	if p.IsBorrowed != nil {
		exprs = append(exprs, goqu.C("is_borrowed").Eq(*p.IsBorrowed))
	}
	if p.CreatedAfter != nil {
		exprs = append(exprs, goqu.C("created_at").Gte(*p.CreatedAfter))
	}

	base := goqu.Dialect("postgres").From("books").Where(exprs...)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := bookSortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	order := goqu.I(col).Desc()
	if p.SortOrder == "asc" {
		order = goqu.I(col).Asc()
	}

	offset := (p.Page - 1) * p.Limit
	listSQL, listArgs, err := base.
		Select(goqu.L(bookColumns)).
		Order(order).
		Offset(uint(offset)).
		Limit(uint(p.Limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	books, err := r.queryBooks(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ListLatest returns the newest books by creation time.
func (r *BookRepo) ListLatest(ctx context.Context, limit int) ([]models.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC LIMIT $1`
	return r.queryBooks(ctx, q, limit)
}

// ListByIDs fetches books by id. The store gives no order guarantee; callers
// reconstruct ordering themselves.
func (r *BookRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`
	return r.queryBooks(ctx, q, ids)
}

// Update applies the non-nil fields of upd and returns the updated book.
func (r *BookRepo) Update(ctx context.Context, id uuid.UUID, upd models.BookUpdate) (*models.Book, error) {
	rec := goqu.Record{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		rec["title"] = *upd.Title
	}
	if upd.Author != nil {
		rec["author"] = *upd.Author
	}
	if upd.ISBN != nil {
		rec["isbn"] = *upd.ISBN
	}
	if upd.Year != nil {
		rec["year"] = *upd.Year
	}
	if upd.Publisher != nil {
		rec["publisher"] = *upd.Publisher
	}
	if upd.Category != nil {
		rec["category"] = *upd.Category
	}
	if upd.Description != nil {
		rec["description"] = *upd.Description
	}
	if upd.CoverImage != nil {
		rec["cover_image"] = *upd.CoverImage
	}
	if upd.Location != nil {
		rec["location"] = *upd.Location
	}
	if upd.IsHighlighted != nil {
		rec["is_highlighted"] = *upd.IsHighlighted
	}
	if upd.IsBorrowed != nil {
		rec["is_borrowed"] = *upd.IsBorrowed
	}

	q, args, err := goqu.Dialect("postgres").
		Update("books").
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(bookColumns)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}
	return scanBook(r.db.Pool.QueryRow(ctx, q, args...))
}

// Delete removes a book row.
func (r *BookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM books WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetBorrowedFlag sets the advisory is_borrowed flag.
func (r *BookRepo) SetBorrowedFlag(ctx context.Context, id uuid.UUID, borrowed bool) error {
	const q = `UPDATE books SET is_borrowed = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, q, id, borrowed)
	return err
}
