// Package redislock adapts bsm/redislock to the locklab Locker contract so
// the harness can drive it alongside the native lock.
package redislock

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	laberrors "github.com/seravalle/locklab/errors"
	"github.com/seravalle/locklab/lock"
)

type redislockLocker struct {
	lc            *redislock.Client
	retryInterval time.Duration
	waitTimeout   time.Duration
}

// NewLocker returns a Locker backed by bsm/redislock.
func NewLocker(client redislock.RedisClient, opts ...Option) lock.Locker {
	o := options{retryInterval: lock.DefaultRetryInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &redislockLocker{
		lc:            redislock.New(client),
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

func (lr *redislockLocker) TryAcquire(ctx context.Context, key string, lease time.Duration) (lock.LockHandle, error) {
	l, err := lr.lc.Obtain(ctx, key, lease, nil)
	switch {
	case err == nil:
		return &redislockHandle{lock: l}, nil
	case stdErrors.Is(err, redislock.ErrNotObtained):
		return nil, laberrors.ErrNotObtained
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
}

func (lr *redislockLocker) Acquire(ctx context.Context, key string, lease time.Duration) (lock.LockHandle, error) {
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

type redislockHandle struct {
	lock *redislock.Lock
}

func (h *redislockHandle) Release(ctx context.Context) error {
	err := h.lock.Release(ctx)
	if stdErrors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
