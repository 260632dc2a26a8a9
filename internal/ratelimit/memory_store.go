package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps fixed-window counters in process memory. Entries whose
// window has passed are recreated on the next hit and removed by the sweep
// loop so memory stays bounded.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryStore builds an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*windowEntry)}
}

// Incr implements CounterStore.
func (s *MemoryStore) Incr(ctx context.Context, identifier string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok || entry.resetAt.Before(now) {
		entry = &windowEntry{count: 1, resetAt: now.Add(window)}
		s.entries[identifier] = entry
		return 1, entry.resetAt, nil
	}

	entry.count++
	return entry.count, entry.resetAt, nil
}

// Sweep removes all entries whose window has passed and reports how many
// were dropped.
func (s *MemoryStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.resetAt.Before(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
