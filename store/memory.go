package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value string
	timer *time.Timer
}

// InMemory is an AtomicStore backed by a map. Entries expire on wall-clock
// time via time.AfterFunc, so lease semantics match a real store.
type InMemory struct {
	mu    sync.Mutex
	items map[string]*memoryEntry
}

// NewInMemory returns a new in-memory atomic store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string]*memoryEntry)}
}

// SetIfAbsent implements AtomicStore.SetIfAbsent.
func (s *InMemory) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false, nil
	}
	e := &memoryEntry{value: value}
	if ttl > 0 {
		e.timer = time.AfterFunc(ttl, func() {
			s.expire(key, value)
		})
	}
	s.items[key] = e
	return true, nil
}

// expire removes key only if it still holds the value the timer was armed
// for, so a lease that was released and reacquired is never evicted.
func (s *InMemory) expire(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok && e.value == value {
		delete(s.items, key)
	}
}

// DeleteIfEquals implements AtomicStore.DeleteIfEquals.
func (s *InMemory) DeleteIfEquals(ctx context.Context, key, expected string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok || e.value != expected {
		return false, nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.items, key)
	return true, nil
}

// Get implements AtomicStore.Get.
func (s *InMemory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}
