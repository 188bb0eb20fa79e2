package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/YusovID/storefront/internal/storage"
)

type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (s *Storage) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return slices.Clone(blob), nil
}

func (s *Storage) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(blob)

	return nil
}
