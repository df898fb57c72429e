package resource

import (
	"context"
	"sync"
)

// InMemory implements Counter and Claimable with process-local maps. The
// internal mutex only keeps the maps structurally sound; it does not make a
// read-then-write cycle atomic, which is exactly what the harness needs.
type InMemory struct {
	mu       sync.Mutex
	counters map[string]int64
	claims   map[string]string
}

// NewInMemory returns a new in-memory resource.
func NewInMemory() *InMemory {
	return &InMemory{
		counters: make(map[string]int64),
		claims:   make(map[string]string),
	}
}

// ReadState implements Counter.ReadState.
func (r *InMemory) ReadState(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[id], nil
}

// WriteState implements Counter.WriteState.
func (r *InMemory) WriteState(ctx context.Context, id string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[id] = value
	return nil
}

// TryClaim implements Claimable.TryClaim.
func (r *InMemory) TryClaim(ctx context.Context, id, claimant string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claims[id]; ok {
		return false, nil
	}
	r.claims[id] = claimant
	return true, nil
}

// ClaimantOf implements Claimable.ClaimantOf.
func (r *InMemory) ClaimantOf(ctx context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	return c, ok, nil
}
