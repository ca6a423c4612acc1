package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key (order number, product id) is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports a request the caller must fix before retrying.
// Message is safe to return to clients verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with the given client-facing message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
