package kv

import (
	"sync"
)

// MemoryStore is an in-process Store. It is used when no persistent
// location is configured and throughout the tests.
type MemoryStore struct {
	quota int64 // Maximum size in bytes, 0 for unlimited
	size  int64 // Current size in bytes

	items map[string][]byte

	mu sync.RWMutex
}

// NewMemoryStore creates a memory store with the given quota in bytes.
// A quota of zero disables the limit.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{
		quota: quota,
		items: make(map[string][]byte),
	}
}

// Get retrieves a copy of the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores value under key, replacing any previous value.
func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newSize := s.size + entrySize(key, value)
	if existing, ok := s.items[key]; ok {
		newSize -= entrySize(key, existing)
	}

	if s.quota > 0 && newSize > s.quota {
		return ErrQuotaExceeded
	}

	s.items[key] = append([]byte(nil), value...)
	s.size = newSize
	return nil
}

// Delete removes key from the store.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		s.size -= entrySize(key, existing)
		delete(s.items, key)
	}
	return nil
}

// Keys returns all keys in the store.
func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	return keys, nil
}

// Size returns the current size in bytes, counting keys and values.
func (s *MemoryStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.size
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
