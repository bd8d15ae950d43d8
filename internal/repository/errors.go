// Package repository defines the typed views over the blob store and the
// error values shared by them.  These sentinel values allow higher layers
// such as handlers to distinguish between failure scenarios: ErrNotFound
// when a record does not exist, ErrConflict when the current state forbids
// the operation (duplicate transaction id, cancelling a finished show) and
// ErrSeatTaken when a seat is already sold to another booking.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested record does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot be performed because of
// the stored state.  Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrSeatTaken is returned when a seat claim overlaps seats already owned by
// another transaction.  It wraps ErrConflict.
var ErrSeatTaken = fmt.Errorf("%w: seat already taken", ErrConflict)

// ValidationError reports a record or form field that failed validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}
