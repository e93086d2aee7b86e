package movies

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested movie id has no catalog record.
// Stores must return it (possibly wrapped) for unknown ids.
var ErrNotFound = errors.New("movie not found")

// ValidationError reports rejected client input. No side effects have
// happened when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
