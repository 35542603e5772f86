package storage

import (
	"context"
	"sync"
)

// memory implements Store using an in-memory map.
type memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	quota int64
	used  int64
}

// NewMemoryStore creates a new in-memory Store. quota caps the total number of
// stored bytes (keys plus values); zero disables the cap. It mirrors the
// capacity limit of an origin-scoped browser store.
func NewMemoryStore(quota int64) Store {
	return &memory{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

func (s *memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *memory) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := int64(len(value)) - int64(len(s.data[key]))
	if _, exists := s.data[key]; !exists {
		delta += int64(len(key))
	}
	if s.quota > 0 && s.used+delta > s.quota {
		return ErrQuotaExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	s.used += delta
	return nil
}

func (s *memory) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.data[key]
	if !ok {
		return nil
	}
	s.used -= int64(len(key)) + int64(len(value))
	delete(s.data, key)
	return nil
}

func (s *memory) Close() error {
	return nil
}
