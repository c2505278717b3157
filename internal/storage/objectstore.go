// internal/storage/objectstore.go
package storage

import (
	"context"
	"time"
)

// ObjectStore is the object-storage abstraction used by the media path.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// GetMetadata returns the user metadata attached to an object, or
	// apperrors.ErrNotFound when the object does not exist.
	GetMetadata(ctx context.Context, name string) (map[string]string, error)

	// PutObject writes the object bytes, replacing any existing content.
	PutObject(ctx context.Context, name string, data []byte, contentType string) error

	// SetMetadata replaces the object's user metadata. The object must
	// already exist.
	SetMetadata(ctx context.Context, name string, metadata map[string]string) error

	// SignURL issues a read-only URL for the object, valid between the
	// two instants. No existence check is performed.
	SignURL(name string, validFrom, validTo time.Time) (string, error)
}
