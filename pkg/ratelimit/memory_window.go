package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryWindowStore is the in-process WindowStore backend. A single lock makes
// every Record atomic with respect to concurrent checks; members are trimmed
// on access, so memory for a key is bounded by its policy limit plus the
// denied attempts of one window.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryWindowStore creates an in-process sliding-window store. Suited to
// single-process deployments that want sliding-window accuracy without a
// shared store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{windows: make(map[string][]time.Time)}
}

// Record implements WindowStore.
func (s *MemoryWindowStore) Record(ctx context.Context, key string, now, windowStart time.Time, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.windows[key][:0]
	for _, ts := range s.windows[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	s.windows[key] = kept

	return len(kept), nil
}

// OldestInWindow implements WindowStore. Record keeps members ordered, so the
// oldest is the first.
func (s *MemoryWindowStore) OldestInWindow(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.windows[key]
	if len(members) == 0 {
		return time.Time{}, nil
	}
	return members[0], nil
}

// Delete implements WindowStore.
func (s *MemoryWindowStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}
