package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidStatusID = errors.New("invalid status id")
	ErrInvalidPosition = errors.New("invalid position")
	ErrRequired        = errors.New("required")
	ErrTooLong         = errors.New("too long")
)

// ValidationError reports one rejected form field before anything reaches the store.
type ValidationError struct {
	Field string
	Limit int
	Err   error
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s: %v (max %d)", e.Field, e.Err, e.Limit)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap exposes ErrRequired / ErrTooLong to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a field validation failure.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
