// internal/docstore/docstore.go
package docstore

import (
	"context"
	"encoding/json"
)

// Document is the unit of storage. A document is uniquely addressed by
// (partition, id) within its collection. ETag is the store's concurrency
// token: a new value is assigned on every successful write.
type Document struct {
	ID        string
	Partition string
	ETag      string
	Data      json.RawMessage
}

// Filter is a single equality predicate over a top-level JSON field of
// the document body. A nil Filter matches every document.
type Filter struct {
	Field string
	Value interface{}
}

// Client is the document-store abstraction the storefront core is built
// against. The store supplies no cross-partition transaction and no
// joins; callers compose multi-document operations themselves.
//
// Upsert semantics: when doc.ETag is empty the write is unconditional
// (create or full replace). When doc.ETag is set, the write succeeds only
// if the stored document still carries that ETag; otherwise ErrConflict.
// The returned document carries the freshly assigned ETag.
//
// Insert is create-only: it fails with ErrConflict when a document with
// the same (partition, id) already exists, making it safe for two
// writers to race on first creation.
//
// GetByID with an empty partition key performs a cross-partition lookup
// by id. This is the degraded path used when the partition value is not
// known to the caller (for example products whose partition is their
// category).
type Client interface {
	GetByID(ctx context.Context, collection, partitionKey, id string) (*Document, error)
	Query(ctx context.Context, collection string, filter *Filter, skip, take int) ([]Document, error)
	Count(ctx context.Context, collection string, filter *Filter) (int, error)
	Upsert(ctx context.Context, collection string, doc *Document) (*Document, error)
	Insert(ctx context.Context, collection string, doc *Document) (*Document, error)
	Delete(ctx context.Context, collection, partitionKey, id string) error

	// NextKey returns the store's own next native key for the collection.
	// Unlike the scan-max allocator this is atomic within the store.
	NextKey(ctx context.Context, collection string) (int, error)
}
