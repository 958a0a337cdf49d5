// Package cache provides a small bounded key/value store shared by the chart
// recommendation and rendered figure caches.
//
// Eviction is by insertion order, not access order: when the store is full
// and a new key arrives, the earliest-inserted entry still present is dropped.
// Get deliberately does not refresh an entry's position, reproducing the
// original first-in-first-out semantics rather than true LRU.
package cache

import "sync"

// DefaultFigureCapacity is the default entry bound for rendered figures.
const DefaultFigureCapacity = 20

// Store is a bounded map with FIFO capacity eviction. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Store[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]V
	order    []string // insertion order, earliest first
}

// New creates a store holding at most capacity entries. A non-positive
// capacity falls back to DefaultFigureCapacity.
func New[V any](capacity int) *Store[V] {
	if capacity <= 0 {
		capacity = DefaultFigureCapacity
	}
	return &Store[V]{
		capacity: capacity,
		entries:  make(map[string]V, capacity),
	}
}

// Get returns the value stored under key, if present.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Put stores value under key. Re-putting an existing key replaces the value
// but keeps the entry's original insertion position. Inserting a new key into
// a full store first evicts the earliest-inserted entry.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		s.entries[key] = value
		return
	}

	if len(s.entries) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}

	s.entries[key] = value
	s.order = append(s.order, key)
}

// Len returns the current number of entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the configured entry bound.
func (s *Store[V]) Capacity() int {
	return s.capacity
}
