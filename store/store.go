package store

import (
	"context"
	"time"
)

// AtomicStore is the key-value contract the lock is built on. Implementations
// must provide server-side atomicity for both conditional operations; a
// get-then-delete sequence is not an acceptable DeleteIfEquals.
type AtomicStore interface {
	// SetIfAbsent stores value under key with the given ttl only if the key
	// is currently absent. The boolean reports whether the set happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// DeleteIfEquals removes key only if its current value equals expected.
	// The boolean reports whether the delete happened.
	DeleteIfEquals(ctx context.Context, key, expected string) (bool, error)

	// Get retrieves the value for a key. The boolean reports presence.
	Get(ctx context.Context, key string) (string, bool, error)
}
