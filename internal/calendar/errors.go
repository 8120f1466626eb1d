package calendar

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no event matches an id or a referenceId.
var ErrNotFound = errors.New("event not found")

// ValidationError reports a missing or malformed field on create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
