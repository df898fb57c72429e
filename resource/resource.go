// Package resource provides the critical resources the lock protects: a
// read-modify-write counter and an exclusive claim. The counter contract is
// deliberately non-atomic; in protected scenarios the distributed lock is the
// only synchronization, so any lost update is the lock's failure to prove.
package resource

import "context"

// Counter is a stateful value updated by read-then-write cycles.
type Counter interface {
	// ReadState returns the current value, or zero if the id is unset.
	ReadState(ctx context.Context, id string) (int64, error)

	// WriteState overwrites the value. It performs no conflict detection.
	WriteState(ctx context.Context, id string, value int64) error
}

// Claimable is a resource that at most one claimant may hold, e.g. a room
// reservation.
type Claimable interface {
	// TryClaim records claimant as the owner of id if nobody claimed it yet.
	// The boolean reports whether the claim succeeded.
	TryClaim(ctx context.Context, id, claimant string) (bool, error)

	// ClaimantOf returns the current owner of id, if any.
	ClaimantOf(ctx context.Context, id string) (string, bool, error)
}
