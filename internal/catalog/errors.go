package catalog

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is; the more specific
// errors below wrap one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStorage         = errors.New("storage failure")
)

var (
	// ErrClaimExists is returned when a user already owns or wants the book.
	ErrClaimExists = fmt.Errorf("%w: book already added as owned or wanted", ErrConflict)

	// ErrDuplicateExternalID is returned when a book with the same external id
	// is already stored.
	ErrDuplicateExternalID = fmt.Errorf("%w: book with this external id already exists", ErrConflict)

	// ErrStale is returned when a save or delete was based on an outdated read
	// of the book.
	ErrStale = fmt.Errorf("%w: book was modified concurrently", ErrConflict)

	// ErrBookNotFound is returned when no book matches the requested id.
	ErrBookNotFound = fmt.Errorf("book %w", ErrNotFound)
)

// ValidationError lists the fields that failed validation. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// FieldError describes one invalid field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msg := ErrInvalidInput.Error() + ":"
	for i, f := range e.Fields {
		if i > 0 {
			msg += ","
		}
		msg += " " + f.Field + " (" + f.Rule + ")"
	}
	return msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// StorageError wraps a persistence failure with the operation that hit it.
// Both ErrStorage and the underlying driver error stay reachable.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
