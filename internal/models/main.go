// Package models defines the core data structures for users, books and borrowings.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Borrowing status values.
const (
	BorrowStatusActive   = "active"
	BorrowStatusReturned = "returned"
)

// User represents an application user. The password hash and the session
// token set are never serialized; JSON output is always the sanitized form.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID `json:"id"`
	// Email is the login identity, unique across users.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
	// FirstName is the user's given name.
	FirstName string `json:"firstName"`
	// LastName is the user's family name.
	LastName string `json:"lastName"`
	// Role is either "user" or "admin".
	Role string `json:"role"`
	// IsActive approximates "has at least one live session". It is advisory:
	// set on every successful token validation, cleared when the last token
	// is revoked.
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Book represents a catalog entry.
type Book struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	ISBN   string    `json:"isbn"`
	// Optional bibliographic fields are nullable.
	Year        *int    `json:"year"`
	Publisher   *string `json:"publisher"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	CoverImage  *string `json:"coverImage"`
	Location    *string `json:"location"`
	// IsHighlighted marks the book for the curated shelves.
	IsHighlighted bool `json:"isHighlighted"`
	// IsBorrowed is advisory only: borrow/return toggle it best-effort and
	// admin writes may override it. The borrowing ledger is the authority.
	IsBorrowed bool `json:"isBorrowed"`
	// ViewCount is incremented on every detail fetch.
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Borrowing links a user and a book. At most one record per (user, book)
// pair may be active at any time; records are never deleted.
type Borrowing struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	BookID     uuid.UUID  `json:"bookId"`
	BorrowDate time.Time  `json:"borrowDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate"`
	Comments   *string    `json:"comments"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// BorrowerInfo is the minimal user projection attached to history rows.
type BorrowerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// BorrowedBookInfo is the minimal book projection attached to history rows.
type BorrowedBookInfo struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// BorrowingDetail is a ledger record enriched with counterpart projections.
type BorrowingDetail struct {
	Borrowing
	User *BorrowerInfo     `json:"user"`
	Book *BorrowedBookInfo `json:"book"`
}

// HistoryKind states which entity anchors a borrow-history query.
type HistoryKind string

const (
	HistoryKindBook HistoryKind = "book"
	HistoryKindUser HistoryKind = "user"
)

// HistoryAnchor names the entity a history query filters by. The kind is
// always explicit; ids are never resolved by trial lookup.
type HistoryAnchor struct {
	Kind HistoryKind
	ID   uuid.UUID
}

// HomepageBooks holds the three curated landing-page lists.
type HomepageBooks struct {
	Latest   []Book `json:"latest"`
	Trending []Book `json:"trending"`
	Hot      []Book `json:"hot"`
}

// Pagination is the paging metadata returned with every list response.
type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

// NewPagination computes totalPages = ceil(total/limit). limit must be > 0.
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Limit:       limit,
	}
}

// BookListParams are the catalog listing filters.
type BookListParams struct {
	// Keyword matches title/author/isbn/description, case-insensitive substring.
	Keyword       string
	Category      *string
	Location      *string
	IsHighlighted *bool
	IsBorrowed    *bool
	// CreatedAfter keeps only books created at or after the given time.
	CreatedAfter *time.Time
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

// UserListParams are the admin user listing filters.
type UserListParams struct {
	// Keyword matches email/firstName/lastName, case-insensitive substring.
	Keyword   string
	Role      *string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// BookInput is the payload for creating a book.
type BookInput struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          string  `json:"isbn"`
	Year          *int    `json:"year"`
	Publisher     *string `json:"publisher"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	CoverImage    *string `json:"coverImage"`
	Location      *string `json:"location"`
	IsHighlighted bool    `json:"isHighlighted"`
	IsBorrowed    bool    `json:"isBorrowed"`
}

// BookUpdate is a partial update: nil fields are left untouched.
type BookUpdate struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	Year          *int    `json:"year"`
	Publisher     *string `json:"publisher"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	CoverImage    *string `json:"coverImage"`
	Location      *string `json:"location"`
	IsHighlighted *bool   `json:"isHighlighted"`
	IsBorrowed    *bool   `json:"isBorrowed"`
}

// UserInput is the payload for creating a user.
type UserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserUpdate is a partial update: nil fields are left untouched.
// Passwords are not updatable through this path.
type UserUpdate struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}
