// Package errors defines the sentinel errors shared across locklab packages.
package errors

import "errors"

var (
	// ErrNotObtained signals ordinary lock contention. It is an expected
	// outcome, not a fault: someone else holds the key.
	ErrNotObtained = errors.New("lock not obtained")

	// ErrStoreUnavailable signals a transport-level failure talking to the
	// backing store. Callers must be able to tell it apart from contention.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTimeout is returned when a store operation exceeds its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrConnectionClosed is returned when the store client has been closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrConflict signals that a critical resource refused a write, e.g. a
	// reservation that was already claimed.
	ErrConflict = errors.New("resource conflict")
)
