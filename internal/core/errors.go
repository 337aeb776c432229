package core

import "errors"

var (
	// ErrNotFound reports that a mutation referenced an id that is not in
	// the collection. The collection is left unchanged.
	ErrNotFound = errors.New("record not found")

	// ErrConflict reports a uniqueness violation surfaced by the
	// persistence layer (duplicate category name for the same user).
	ErrConflict = errors.New("record already exists")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidFrequency = errors.New("invalid recurring frequency")
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrInvalidMode      = errors.New("invalid progress mode")
)

// ValidationError reports bad input shape or value. It is the caller's
// responsibility and is surfaced as an inline message, not a toast.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a field-level validation failure.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
