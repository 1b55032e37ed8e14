package store

import (
	"errors"
	"fmt"
)

// Common blob store errors
var (
	// ErrNotFound is returned when a Get or Delete references a key that
	// does not exist in the bucket.
	ErrNotFound = errors.New("object not found")

	// ErrStoreUnavailable is returned when the store cannot be reached or
	// rejects the request (transport, auth, quota).
	ErrStoreUnavailable = errors.New("object store unavailable")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// StoreError wraps errors with additional context about the failed store operation.
type StoreError struct {
	// Op is the operation that failed (e.g., "Put", "ListPrefix").
	Op string

	// Key is the object key or prefix involved.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store: %s %q failed: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapStoreError wraps an error as a StoreError if it isn't already one.
func WrapStoreError(op, key string, err error) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err // Already wrapped
	}

	return &StoreError{Op: op, Key: key, Err: err}
}
