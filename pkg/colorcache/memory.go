package colorcache

import (
	"context"
	"sync"
)

type memoryKey struct {
	id        int64
	attribute string
}

// MemoryStore keeps colors in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	colors map[memoryKey]int
	writes int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colors: make(map[memoryKey]int)}
}

// Get returns the last color appended for id under attribute.
func (s *MemoryStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colors[memoryKey{id, attribute}]
	return c, ok, nil
}

// Append records a color.
func (s *MemoryStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors[memoryKey{id, attribute}] = color
	s.writes++
	return nil
}

// Writes returns the number of Append calls so far.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
