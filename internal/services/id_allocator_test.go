// internal/services/id_allocator_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso/storefront/internal/apperrors"
	"github.com/contoso/storefront/internal/docstore"
	"github.com/contoso/storefront/internal/models"
)

func allocators(store docstore.Client) map[string]IDAllocator {
	return map[string]IDAllocator{
		"maxscan": NewMaxScanAllocator(store),
		"counter": NewCounterAllocator(store),
	}
}

func TestNextIDEmptyCollection(t *testing.T) {
	for name, alloc := range allocators(docstore.NewMemoryStore()) {
		t.Run(name, func(t *testing.T) {
			id, err := alloc.NextID(context.Background(), models.CollectionOrders)
			require.NoError(t, err)
			assert.Equal(t, 1, id)
		})
	}
}

func TestNextIDSkipsGaps(t *testing.T) {
	for name := range allocators(nil) {
		t.Run(name, func(t *testing.T) {
			store := docstore.NewMemoryStore()
			for _, id := range []int{1, 3, 7} {
				seedOrder(t, store, id, 5, "10.00")
			}
			alloc := allocators(store)[name]
			id, err := alloc.NextID(context.Background(), models.CollectionOrders)
			require.NoError(t, err)
			assert.Equal(t, 8, id, "next id is max+1, gaps are never reused")
		})
	}
}

func TestNextBlockContiguous(t *testing.T) {
	for name := range allocators(nil) {
		t.Run(name, func(t *testing.T) {
			store := docstore.NewMemoryStore()
			seedOrderItem(t, store, 4, 1, 1, 1, "2.50")
			alloc := allocators(store)[name]

			start, err := alloc.NextBlock(context.Background(), models.CollectionOrderItems, 3)
			require.NoError(t, err)
			assert.Equal(t, 5, start)
		})
	}
}

func TestNextBlockRejectsNonPositive(t *testing.T) {
	for name, alloc := range allocators(docstore.NewMemoryStore()) {
		t.Run(name, func(t *testing.T) {
			_, err := alloc.NextBlock(context.Background(), models.CollectionOrders, 0)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCounterAllocatorAdvancesCounter(t *testing.T) {
	store := docstore.NewMemoryStore()
	alloc := NewCounterAllocator(store)

	first, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	second, err := alloc.NextBlock(context.Background(), models.CollectionOrders, 4)
	require.NoError(t, err)
	third, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 6, third)
}

func TestCounterAllocatorSeedsFromExistingMax(t *testing.T) {
	store := docstore.NewMemoryStore()
	seedOrder(t, store, 41, 5, "10.00")

	alloc := NewCounterAllocator(store)
	id, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

// staleReadStore reports the counter document as absent for a set number
// of reads, reproducing allocators that each observe an empty collection
// before the other's seed write lands.
type staleReadStore struct {
	docstore.Client
	missesLeft int
}

func (s *staleReadStore) GetByID(ctx context.Context, collection, partitionKey, id string) (*docstore.Document, error) {
	if collection == "counters" && s.missesLeft > 0 {
		s.missesLeft--
		return nil, apperrors.NotFound(collection + "/" + id)
	}
	return s.Client.GetByID(ctx, collection, partitionKey, id)
}

func TestCounterAllocatorSeedRaceStaysUnique(t *testing.T) {
	store := docstore.NewMemoryStore()
	alloc := NewCounterAllocator(&staleReadStore{Client: store, missesLeft: 2})

	// Both allocations believe the counter does not exist yet; the second
	// seed attempt must lose to the first instead of handing out the same
	// id again.
	first, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	second, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestCounterAllocatorSeedReservesNothing(t *testing.T) {
	store := docstore.NewMemoryStore()
	seedOrder(t, store, 3, 5, "10.00")
	alloc := NewCounterAllocator(store)

	// The first allocation after seeding must still be max+1.
	id, err := alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	assert.Equal(t, 4, id)
	id, err = alloc.NextID(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
}

func TestCounterAllocatorConcurrentUnique(t *testing.T) {
	store := docstore.NewMemoryStore()
	alloc := NewCounterAllocator(store)

	const workers = 8
	ids := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := alloc.NextID(context.Background(), models.CollectionOrders)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestAllocatorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, alloc := range allocators(docstore.NewMemoryStore()) {
		t.Run(name, func(t *testing.T) {
			_, err := alloc.NextID(ctx, models.CollectionOrders)
			assert.True(t, apperrors.IsCancelled(err))
		})
	}
}
