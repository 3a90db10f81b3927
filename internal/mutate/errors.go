package mutate

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrPermissionDenied indicates the capability check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRemote indicates the backend rejected the call or could not be reached.
	ErrRemote = errors.New("remote call failed")
	// ErrInFlight indicates a submission for the same control is still pending.
	ErrInFlight = errors.New("submission already in flight")
	// ErrNotFoundLocally indicates the target entity is not in the store.
	ErrNotFoundLocally = errors.New("entity not found locally")
)

// RemoteError wraps a backend failure. It matches both ErrRemote and the
// underlying cause with errors.Is.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemote, e.Err}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
