// internal/docstore/memory.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/contoso/storefront/internal/apperrors"
)

// MemoryStore is an in-process Client used by tests and credential-less
// local development. Query results preserve insertion order so offset
// pagination returns disjoint pages.
type MemoryStore struct {
	mtx         sync.RWMutex
	collections map[string]*memCollection
	keys        map[string]int
}

type memCollection struct {
	docs  map[string]*Document // keyed by partition + "\x00" + id
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
		keys:        make(map[string]int),
	}
}

func memKey(partition, id string) string { return partition + "\x00" + id }

func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]*Document)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) GetByID(ctx context.Context, collection, partitionKey, id string) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c := s.collections[collection]
	if c == nil {
		return nil, apperrors.NotFound(collection + "/" + id)
	}
	if partitionKey != "" {
		if doc, ok := c.docs[memKey(partitionKey, id)]; ok {
			return copyDoc(doc), nil
		}
		return nil, apperrors.NotFound(collection + "/" + id)
	}
	// Cross-partition lookup.
	for _, key := range c.order {
		if doc := c.docs[key]; doc != nil && doc.ID == id {
			return copyDoc(doc), nil
		}
	}
	return nil, apperrors.NotFound(collection + "/" + id)
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter *Filter, skip, take int) ([]Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c := s.collections[collection]
	if c == nil {
		return nil, nil
	}
	var out []Document
	matched := 0
	for _, key := range c.order {
		doc := c.docs[key]
		if doc == nil {
			continue
		}
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if matched < skip {
			matched++
			continue
		}
		matched++
		out = append(out, *copyDoc(doc))
		if take > 0 && len(out) >= take {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, filter *Filter) (int, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return 0, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c := s.collections[collection]
	if c == nil {
		return 0, nil
	}
	n := 0
	for _, key := range c.order {
		doc := c.docs[key]
		if doc == nil {
			continue
		}
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, doc *Document) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil || doc.ID == "" {
		return nil, apperrors.Invalid("document id is required")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c := s.collection(collection)
	key := memKey(doc.Partition, doc.ID)
	existing := c.docs[key]

	if doc.ETag != "" {
		if existing == nil || existing.ETag != doc.ETag {
			return nil, fmt.Errorf("etag mismatch on %s/%s: %w", collection, doc.ID, apperrors.ErrConflict)
		}
	}

	stored := copyDoc(doc)
	stored.ETag = uuid.NewString()
	c.docs[key] = stored
	if existing == nil {
		c.order = append(c.order, key)
	}
	return copyDoc(stored), nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc *Document) (*Document, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil || doc.ID == "" {
		return nil, apperrors.Invalid("document id is required")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c := s.collection(collection)
	key := memKey(doc.Partition, doc.ID)
	if c.docs[key] != nil {
		return nil, fmt.Errorf("%s/%s already exists: %w", collection, doc.ID, apperrors.ErrConflict)
	}

	stored := copyDoc(doc)
	stored.ETag = uuid.NewString()
	c.docs[key] = stored
	c.order = append(c.order, key)
	return copyDoc(stored), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, partitionKey, id string) error {
	if err := apperrors.FromContext(ctx); err != nil {
		return err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c := s.collections[collection]
	if c == nil {
		return apperrors.NotFound(collection + "/" + id)
	}
	target := ""
	if partitionKey != "" {
		target = memKey(partitionKey, id)
		if _, ok := c.docs[target]; !ok {
			return apperrors.NotFound(collection + "/" + id)
		}
	} else {
		for key, doc := range c.docs {
			if doc != nil && doc.ID == id {
				target = key
				break
			}
		}
		if target == "" {
			return apperrors.NotFound(collection + "/" + id)
		}
	}
	delete(c.docs, target)
	for i, key := range c.order {
		if key == target {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) NextKey(ctx context.Context, collection string) (int, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return 0, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.keys[collection]++
	return s.keys[collection], nil
}

func copyDoc(doc *Document) *Document {
	out := &Document{ID: doc.ID, Partition: doc.Partition, ETag: doc.ETag}
	if doc.Data != nil {
		out.Data = make(json.RawMessage, len(doc.Data))
		copy(out.Data, doc.Data)
	}
	return out
}

// matches evaluates the equality filter against a top-level field of the
// document body. JSON numbers are compared as float64 regardless of the
// filter value's Go type.
func matches(doc *Document, filter *Filter) (bool, error) {
	if filter == nil || filter.Field == "" {
		return true, nil
	}
	var body map[string]interface{}
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return false, apperrors.Unavailable(err)
	}
	got, ok := body[filter.Field]
	if !ok {
		return false, nil
	}
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(filter.Value); ok {
			return gf == wf, nil
		}
		return false, nil
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", filter.Value), nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
