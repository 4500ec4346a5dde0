package state

import (
	"sync"
	"time"
)

// DefaultCapacity bounds a Store created with a non-positive capacity.
const DefaultCapacity = 5000

// Snapshot represents the retained items at a point in time.
type Snapshot[T any] struct {
	Items       []T
	Total       uint64 // items ever appended
	Dropped     uint64 // items evicted by the capacity bound or a reset
	Version     uint64 // changes on every append and reset
	LastUpdated time.Time
}

// Store is a bounded, concurrency-safe ring of items. Writers are provider
// goroutines; readers take cloned snapshots.
type Store[T any] struct {
	mu       sync.RWMutex
	capacity int
	ring     []T
	start    int
	count    int
	total    uint64
	dropped  uint64
	version  uint64
	updated  time.Time
}

// NewStore creates a Store retaining at most capacity items.
func NewStore[T any](capacity int) *Store[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store[T]{capacity: capacity}
}

// Append adds items, evicting the oldest ones once the capacity is reached.
func (s *Store[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capacity <= 0 {
		s.capacity = DefaultCapacity
	}
	if s.ring == nil {
		s.ring = make([]T, s.capacity)
	}
	for _, item := range items {
		if s.count < s.capacity {
			s.ring[(s.start+s.count)%s.capacity] = item
			s.count++
		} else {
			s.ring[s.start] = item
			s.start = (s.start + 1) % s.capacity
			s.dropped++
		}
		s.total++
	}
	s.version++
	s.updated = time.Now()
}

// Reset drops every retained item but keeps the counters monotonic.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	for i := range s.ring {
		s.ring[i] = zero
	}
	s.dropped += uint64(s.count)
	s.start, s.count = 0, 0
	s.version++
	s.updated = time.Now()
}

// Len returns the number of retained items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Snapshot returns a copy of the retained items, oldest first.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot[T]{
		Total:       s.total,
		Dropped:     s.dropped,
		Version:     s.version,
		LastUpdated: s.updated,
	}
	if s.count == 0 {
		return snap
	}
	snap.Items = make([]T, s.count)
	for i := 0; i < s.count; i++ {
		snap.Items[i] = s.ring[(s.start+i)%s.capacity]
	}
	return snap
}
