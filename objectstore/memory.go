package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// memoryStoreImpl implements ObjectStore in process memory. Meant for
// unit-testing and single node development setups.
type memoryStoreImpl struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

/*
NewMemoryStore define an in-memory object store

	@returns new object store client
*/
func NewMemoryStore() ObjectStore {
	return &memoryStoreImpl{objects: map[string][]byte{}}
}

func (s *memoryStoreImpl) Upload(
	_ context.Context, prefix string, _ string, payload io.Reader,
) (string, error) {
	content, err := io.ReadAll(payload)
	if err != nil {
		return "", fmt.Errorf("failed to read payload [%w]", err)
	}

	key := newStorageKey(prefix)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = content

	return key, nil
}

func (s *memoryStoreImpl) Download(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("object '%s': %w", ref, ErrObjectNotFound)
	}

	copied := make([]byte, len(content))
	copy(copied, content)
	return copied, nil
}

func (s *memoryStoreImpl) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[ref]; !ok {
		return fmt.Errorf("object '%s': %w", ref, ErrObjectNotFound)
	}
	delete(s.objects, ref)
	return nil
}

func (s *memoryStoreImpl) Exists(_ context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[ref]
	return ok, nil
}
