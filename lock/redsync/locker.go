// Package redsync adapts go-redsync to the locklab Locker contract. It is
// configured with a single pool; multi-node quorum locking stays out of scope.
package redsync

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis"

	laberrors "github.com/seravalle/locklab/errors"
	"github.com/seravalle/locklab/lock"
)

type redsyncLocker struct {
	rs            *redsync.Redsync
	retryInterval time.Duration
	waitTimeout   time.Duration
}

// NewLocker returns a Locker backed by go-redsync over the given pool.
func NewLocker(pool redis.Pool, opts ...Option) lock.Locker {
	o := options{retryInterval: lock.DefaultRetryInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &redsyncLocker{
		rs:            redsync.New(pool),
		retryInterval: o.retryInterval,
		waitTimeout:   o.waitTimeout,
	}
}

// Option configures the adapter.
type Option func(*options)

type options struct {
	retryInterval time.Duration
	waitTimeout   time.Duration
}

// WithRetryInterval sets the pause between blocking acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
	}
}

// WithWaitTimeout bounds how long Acquire keeps retrying.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.waitTimeout = d
	}
}

func (lr *redsyncLocker) TryAcquire(ctx context.Context, key string, lease time.Duration) (lock.LockHandle, error) {
	m := lr.rs.NewMutex(key, redsync.WithExpiry(lease), redsync.WithTries(1))
	if err := m.TryLockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTaken(err) {
			return nil, laberrors.ErrNotObtained
		}
		return nil, fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
	return &redsyncHandle{mutex: m}, nil
}

// isTaken reports whether err says the key is held by someone else, as
// opposed to the node being unreachable.
func isTaken(err error) bool {
	var taken *redsync.ErrTaken
	if stdErrors.As(err, &taken) {
		return true
	}
	var nodeTaken *redsync.ErrNodeTaken
	return stdErrors.As(err, &nodeTaken)
}

func (lr *redsyncLocker) Acquire(ctx context.Context, key string, lease time.Duration) (lock.LockHandle, error) {
	wctx := ctx
	if lr.waitTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, lr.waitTimeout)
		defer cancel()
	}
	ticker := time.NewTicker(lr.retryInterval)
	defer ticker.Stop()
	for {
		h, err := lr.TryAcquire(wctx, key, lease)
		if err == nil {
			return h, nil
		}
		if !stdErrors.Is(err, laberrors.ErrNotObtained) {
			// An attempt cut short by the spent wait timeout is still
			// ordinary contention.
			if wctx.Err() != nil && ctx.Err() == nil {
				return nil, laberrors.ErrNotObtained
			}
			return nil, err
		}
		select {
		case <-ticker.C:
		case <-wctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, laberrors.ErrNotObtained
		}
	}
}

type redsyncHandle struct {
	mutex *redsync.Mutex
}

func (h *redsyncHandle) Release(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if stdErrors.Is(err, redsync.ErrLockAlreadyExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	_ = ok // false means the entry was already reassigned; treated as a no-op
	return nil
}
