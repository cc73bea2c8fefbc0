package auth

import (
	"sync"
	"time"
)

// CounterStore tracks failed login attempts per key inside a sliding
// window. Implementations must be safe for concurrent use: two attempts
// arriving at the same time must both be counted.
type CounterStore interface {
	Incr(key string, window time.Duration) (int, error)
	Count(key string) (int, error)
	Reset(key string) error
}

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

// MemoryCounterStore is an in-process CounterStore. Counters expire
// lazily when touched after their window has passed.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*memoryCounter),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryCounterStore) Count(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || s.now().After(c.expiresAt) {
		return 0, nil
	}
	return c.count, nil
}

func (s *MemoryCounterStore) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}
