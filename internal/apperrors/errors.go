// internal/apperrors/errors.go
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores and services. Backend-specific
// failures are wrapped so callers can match with errors.Is without
// depending on a driver package.
var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrConflict         = errors.New("conflict")
	ErrCancelled        = errors.New("cancelled")
	ErrInvalidInput     = errors.New("invalid input")
)

func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
}

func Invalid(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidInput)
}

// FromContext maps a context failure onto the taxonomy. Deadline expiry is
// treated as a backend fault, caller cancellation as Cancelled.
func FromContext(ctx context.Context) error {
	switch ctx.Err() {
	case context.Canceled:
		return ErrCancelled
	case context.DeadlineExceeded:
		return fmt.Errorf("deadline exceeded: %w", ErrStoreUnavailable)
	default:
		return nil
	}
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }
