// internal/storage/memory.go
package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/contoso/storefront/internal/apperrors"
)

// MemoryStore is an in-process ObjectStore for tests and credential-less
// local development. Signed URLs are fake but carry the object name and
// validity window so callers can assert on them.
type MemoryStore struct {
	mtx     sync.RWMutex
	objects map[string]*memObject

	// Fail hooks let tests exercise the degraded paths.
	MetadataErr error
	PutErr      error
	SetMetaErr  error
}

type memObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memObject)}
}

func (s *MemoryStore) GetMetadata(ctx context.Context, name string) (map[string]string, error) {
	if err := apperrors.FromContext(ctx); err != nil {
		return nil, err
	}
	if s.MetadataErr != nil {
		return nil, s.MetadataErr
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, apperrors.NotFound(name)
	}
	out := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) PutObject(ctx context.Context, name string, data []byte, contentType string) error {
	if err := apperrors.FromContext(ctx); err != nil {
		return err
	}
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[name] = &memObject{data: buf, contentType: contentType, metadata: map[string]string{}}
	return nil
}

func (s *MemoryStore) SetMetadata(ctx context.Context, name string, metadata map[string]string) error {
	if err := apperrors.FromContext(ctx); err != nil {
		return err
	}
	if s.SetMetaErr != nil {
		return s.SetMetaErr
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	obj, ok := s.objects[name]
	if !ok {
		return apperrors.NotFound(name)
	}
	obj.metadata = make(map[string]string, len(metadata))
	for k, v := range metadata {
		obj.metadata[k] = v
	}
	return nil
}

func (s *MemoryStore) SignURL(name string, validFrom, validTo time.Time) (string, error) {
	return fmt.Sprintf("https://storage.local/%s?from=%d&to=%d",
		url.PathEscape(name), validFrom.Unix(), validTo.Unix()), nil
}

// Object returns the stored bytes for assertions in tests.
func (s *MemoryStore) Object(name string) ([]byte, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, false
	}
	return obj.data, true
}
