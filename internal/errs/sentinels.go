// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (missing or invalid token,
	// or bad credentials).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is authenticated but lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrEmailExists indicates a user with the same email already exists.
	ErrEmailExists = errors.New("email already exists")

	// ErrDuplicateBorrow indicates an active borrowing already exists for the
	// same (user, book) pair.
	ErrDuplicateBorrow = errors.New("duplicate active borrow")

	// ErrNoActiveBorrow indicates a return was requested but no active
	// borrowing exists for the (user, book) pair.
	ErrNoActiveBorrow = errors.New("no active borrow")
)

// ValidationError carries field-keyed validation messages up to the HTTP layer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation error" }

// AsValidation unwraps err into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
