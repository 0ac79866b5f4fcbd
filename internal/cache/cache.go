// Package cache provides a small read-through cache with per-call TTLs.
//
// Bots use it to avoid refetching the same external resource within a short
// window: snapshot universes for a few minutes, option chains for a couple of
// minutes, last trades for seconds. The TTL belongs to the call, not the key,
// so one store can back lookups with very different freshness needs.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Store is a key-value cache with a get-or-fetch contract.
// Entries are replaced on refetch and never evicted; keys are expected to be
// low-cardinality symbols and contracts, so growth is bounded in practice.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	now     func() time.Time
}

// New creates an empty store.
func New[V any]() *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached value for key if it is younger than ttl,
// otherwise calls fetch. A successful fetch replaces the entry; a failed
// fetch propagates the error and leaves any prior entry untouched, so a later
// call inside the original TTL would still have served the stale-but-valid
// value rather than a poisoned one.
//
// fetch runs outside the store lock. If two goroutines miss concurrently both
// fetch and the last writer wins, which matches the best-effort semantics the
// callers need.
func (s *Store[V]) GetOrFetch(key string, ttl time.Duration, fetch func() (V, error)) (V, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && s.now().Sub(e.fetchedAt) < ttl {
		s.mu.Unlock()
		return e.value, nil
	}
	s.mu.Unlock()

	value, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, fetchedAt: s.now()}
	s.mu.Unlock()

	return value, nil
}

// Peek returns the cached value regardless of age. Callers use it as a
// last-good fallback when a refetch fails.
func (s *Store[V]) Peek(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return e.value, ok
}

// Len returns the number of stored entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// SetClock replaces the store's clock. Test use only.
func (s *Store[V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}
