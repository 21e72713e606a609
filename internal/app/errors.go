package app

import (
	"errors"
	"fmt"
)

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("not signed in")
	ErrStaleReference  = errors.New("item no longer on the board")
	ErrNoStatuses      = errors.New("list has no status columns")
	ErrNoListLoaded    = errors.New("no list loaded")
)

// StoreError wraps a failure returned by the Store.
type StoreError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store failure.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err came from the Store.
func IsStoreError(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
