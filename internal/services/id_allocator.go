// internal/services/id_allocator.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/docstore"
)

// IDAllocator hands out integer identifiers for a collection. NextBlock
// reserves n contiguous ids with a single allocation step so multi-item
// writes do not pay one round-trip per item; it returns the first id of
// the block.
type IDAllocator interface {
	NextID(ctx context.Context, collection string) (int, error)
	NextBlock(ctx context.Context, collection string, n int) (int, error)
}

// MaxScanAllocator derives the next id by scanning the current maximum
// in the collection and returning max+1 (1 when empty). Two allocators
// reading the same maximum before either writes will hand out duplicate
// ids; acceptable for low-concurrency deployments only. Use
// CounterAllocator where concurrent writers exist.
type MaxScanAllocator struct {
	store docstore.Client
}

func NewMaxScanAllocator(store docstore.Client) *MaxScanAllocator {
	return &MaxScanAllocator{store: store}
}

func (a *MaxScanAllocator) NextID(ctx context.Context, collection string) (int, error) {
	return a.NextBlock(ctx, collection, 1)
}

func (a *MaxScanAllocator) NextBlock(ctx context.Context, collection string, n int) (int, error) {
	if n < 1 {
		return 0, apperrors.Invalid("block size must be positive")
	}
	max, err := maxID(ctx, a.store, collection)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func maxID(ctx context.Context, store docstore.Client, collection string) (int, error) {
	docs, err := store.Query(ctx, collection, nil, 0, 0)
	if err != nil {
		return 0, err
	}
	max := 0
	for i := range docs {
		var probe struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(docs[i].Data, &probe); err != nil {
			continue
		}
		if probe.ID > max {
			max = probe.ID
		}
	}
	return max, nil
}

// CounterAllocator keeps one counter document per collection and bumps it
// with a compare-and-swap on the document's concurrency token, retrying
// on contention. This is the production-grade replacement for
// MaxScanAllocator: concurrent allocations never hand out the same id.
type CounterAllocator struct {
	store       docstore.Client
	maxAttempts int
}

const counterCollection = "counters"

type counterDoc struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func NewCounterAllocator(store docstore.Client) *CounterAllocator {
	return &CounterAllocator{store: store, maxAttempts: 16}
}

func (a *CounterAllocator) NextID(ctx context.Context, collection string) (int, error) {
	return a.NextBlock(ctx, collection, 1)
}

func (a *CounterAllocator) NextBlock(ctx context.Context, collection string, n int) (int, error) {
	if n < 1 {
		return 0, apperrors.Invalid("block size must be positive")
	}
	var lastErr error
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if err := apperrors.FromContext(ctx); err != nil {
			return 0, err
		}
		start, err := a.tryBump(ctx, collection, n)
		if err == nil {
			return start, nil
		}
		if !apperrors.IsConflict(err) {
			return 0, err
		}
		lastErr = err
		logrus.WithFields(logrus.Fields{
			"collection": collection,
			"attempt":    attempt + 1,
		}).Debug("counter allocation contention, retrying")
	}
	return 0, fmt.Errorf("counter allocation for %s exhausted retries: %w", collection, lastErr)
}

func (a *CounterAllocator) tryBump(ctx context.Context, collection string, n int) (int, error) {
	doc, err := a.store.GetByID(ctx, counterCollection, collection, collection)
	if err != nil {
		if apperrors.IsNotFound(err) {
			if serr := a.seed(ctx, collection); serr != nil && !apperrors.IsConflict(serr) {
				return 0, serr
			}
			// Whether our insert or a concurrent one landed, the counter
			// now exists; reserve through the CAS on the next attempt.
			return 0, fmt.Errorf("counter %s freshly seeded: %w", collection, apperrors.ErrConflict)
		}
		return 0, err
	}

	var counter counterDoc
	if err := json.Unmarshal(doc.Data, &counter); err != nil {
		return 0, apperrors.Unavailable(err)
	}
	start := counter.Value + 1
	counter.Value += n

	body, err := json.Marshal(counter)
	if err != nil {
		return 0, err
	}
	doc.Data = body
	if _, err := a.store.Upsert(ctx, counterCollection, doc); err != nil {
		return 0, err
	}
	return start, nil
}

// seed creates the counter document at the collection's current maximum
// so switching over from MaxScanAllocator never reuses an id. The seed
// write reserves nothing and is create-only: when two seeders race, one
// insert loses with a conflict and both fall back to the CAS bump, so
// no id is ever handed out twice.
func (a *CounterAllocator) seed(ctx context.Context, collection string) error {
	max, err := maxID(ctx, a.store, collection)
	if err != nil {
		return err
	}
	body, err := json.Marshal(counterDoc{Name: collection, Value: max})
	if err != nil {
		return err
	}
	_, err = a.store.Insert(ctx, counterCollection, &docstore.Document{
		ID:        collection,
		Partition: collection,
		Data:      body,
	})
	return err
}

func idString(id int) string { return strconv.Itoa(id) }
