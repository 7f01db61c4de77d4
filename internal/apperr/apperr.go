// Package apperr holds the error kinds shared by the storage layer, the services
// and the HTTP handlers.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnection means storage was unreachable, busy or timed out. Safe to retry.
	ErrConnection = errors.New("storage unavailable")
	// ErrQuery means a statement failed for a reason a retry will not fix.
	ErrQuery = errors.New("storage query failed")
	// ErrNotFound is returned for reads of a single resource that does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects caller input before any storage call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation reports whether err carries a ValidationError anywhere in its chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// StorageError records which repository operation failed and how it was classified.
type StorageError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == e.Kind }

// Kind returns ErrConnection, ErrQuery, ErrNotFound or nil for errors outside the taxonomy.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConnection):
		return ErrConnection
	case errors.Is(err, ErrQuery):
		return ErrQuery
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	}
	return nil
}
