package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the service packages. Handlers translate them
// into the matching HTTP outcome (404, redirect, re-rendered form).
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrDuplicate = errors.New("already exists")
)

// ValidationError reports a rejected form field. The request re-renders the
// form with Message next to Field; nothing is written to the database.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for a single field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
