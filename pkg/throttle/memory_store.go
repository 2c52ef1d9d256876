package throttle

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory for tests and local
// development. Expiry is evaluated lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]memoryCounter
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]memoryCounter)}
}

func (s *MemoryStore) Counts(ctx context.Context, keys []string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counts := make([]int64, len(keys))
	for i, key := range keys {
		c, ok := s.counters[key]
		if !ok {
			continue
		}
		if !c.expiresAt.After(now) {
			delete(s.counters, key)
			continue
		}
		counts[i] = c.count
	}
	return counts, nil
}

func (s *MemoryStore) Increment(ctx context.Context, incrs []Increment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, inc := range incrs {
		c := s.counters[inc.Key]
		if !c.expiresAt.After(now) {
			c.count = 0
		}
		c.count++
		c.expiresAt = now.Add(inc.TTL)
		s.counters[inc.Key] = c
	}
	return nil
}

// Preset force-sets a counter value. Test helper.
func (s *MemoryStore) Preset(key string, count int64, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = memoryCounter{count: count, expiresAt: time.Now().Add(ttl)}
}
