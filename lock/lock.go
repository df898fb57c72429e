package lock

import (
	"context"
	stdErrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	laberrors "github.com/seravalle/locklab/errors"
	"github.com/seravalle/locklab/metrics"
	"github.com/seravalle/locklab/store"
)

var tracer = otel.Tracer("github.com/seravalle/locklab/lock")

// DefaultRetryInterval is the pause between conditional-set attempts while
// blocking on a held lock.
const DefaultRetryInterval = 20 * time.Millisecond

// Locker is the acquisition contract the harness drives. KeyLock is the
// native implementation; the redislock and redsync subpackages adapt
// established libraries to the same contract.
type Locker interface {
	// TryAcquire makes a single attempt and returns ErrNotObtained if the
	// key is held by someone else.
	TryAcquire(ctx context.Context, key string, lease time.Duration) (LockHandle, error)

	// Acquire retries until the lock is obtained, the configured wait
	// timeout elapses (ErrNotObtained), or ctx is cancelled.
	Acquire(ctx context.Context, key string, lease time.Duration) (LockHandle, error)
}

// LockHandle represents one held lock. Release is idempotent and must never
// delete another holder's entry.
type LockHandle interface {
	Release(ctx context.Context) error
}

// Option configures a KeyLock.
type Option func(*options)

type options struct {
	retryInterval time.Duration
	waitTimeout   time.Duration
	logger        zerolog.Logger
}

// WithRetryInterval sets the pause between blocking acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
	}
}

// WithWaitTimeout bounds how long Acquire keeps retrying. Zero means retry
// until ctx is cancelled.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *options) {
		o.waitTimeout = d
	}
}

// WithLogger sets the logger used for stale-release diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// KeyLock implements Locker over an AtomicStore.
type KeyLock struct {
	store         store.AtomicStore
	retryInterval time.Duration
	waitTimeout   time.Duration
	log           zerolog.Logger
}

// New returns a new KeyLock backed by the given store.
func New(s store.AtomicStore, opts ...Option) *KeyLock {
	o := options{
		retryInterval: DefaultRetryInterval,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &KeyLock{
		store:         s,
		retryInterval: o.retryInterval,
		waitTimeout:   o.waitTimeout,
		log:           o.logger,
	}
}

// TryAcquire implements Locker.TryAcquire. Each call generates a fresh token
// so the resulting handle is distinguishable from any other holder of the
// same key, past or future.
func (l *KeyLock) TryAcquire(ctx context.Context, key string, lease time.Duration) (LockHandle, error) {
	ctx, span := tracer.Start(ctx, "KeyLock.TryAcquire", trace.WithAttributes(attribute.String("locklab.key", key)))
	defer span.End()

	token := uuid.NewString()
	ok, err := l.store.SetIfAbsent(ctx, key, token, lease)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BusyCounter.Inc()
		return nil, laberrors.ErrNotObtained
	}
	metrics.AcquireCounter.Inc()
	return &Handle{
		store:      l.store,
		log:        l.log,
		key:        key,
		token:      token,
		lease:      lease,
		acquiredAt: time.Now(),
		held:       true,
	}, nil
}

// Acquire implements Locker.Acquire. Each retry is an independent
// conditional set; no state is carried between attempts.
func (l *KeyLock) Acquire(ctx context.Context, key string, lease time.Duration) (LockHandle, error) {
	ctx, span := tracer.Start(ctx, "KeyLock.Acquire", trace.WithAttributes(attribute.String("locklab.key", key)))
	defer span.End()

	wctx := ctx
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()
	for {
		h, err := l.TryAcquire(wctx, key, lease)
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
			// A spent wait timeout is ordinary contention; a cancelled
			// parent context is the caller's abort.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, laberrors.ErrNotObtained
		}
	}
}

// Handle is one attempt to hold a named lock.
type Handle struct {
	store store.AtomicStore
	log   zerolog.Logger

	key        string
	token      string
	lease      time.Duration
	acquiredAt time.Time

	mu   sync.Mutex
	held bool
}

// Key returns the lock key.
func (h *Handle) Key() string { return h.key }

// Token returns the holder's unique token.
func (h *Handle) Token() string { return h.token }

// Lease returns the lease duration the entry was written with.
func (h *Handle) Lease() time.Duration { return h.lease }

// Held reports whether this handle still believes it holds the lock. The
// store remains the source of truth: a lease may have expired without the
// handle noticing.
func (h *Handle) Held() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// Release deletes the lock entry only if it still carries this handle's
// token. Releasing an expired or reassigned lock is a silent no-op, so a
// late release never evicts the current holder. Calling Release more than
// once is safe.
func (h *Handle) Release(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.held {
		return nil
	}
	ok, err := h.store.DeleteIfEquals(ctx, h.key, h.token)
	if err != nil {
		return err
	}
	h.held = false
	if ok {
		metrics.ReleaseCounter.Inc()
		metrics.HoldDuration.Observe(time.Since(h.acquiredAt).Seconds())
	} else {
		metrics.StaleReleaseCounter.Inc()
		h.log.Debug().Str("key", h.key).Msg("stale release, entry expired or reassigned")
	}
	return nil
}

// With acquires key, runs fn, and releases on every exit path including
// panic and cancellation. The release runs on a fresh context so it is
// attempted even when ctx is already done.
func With(ctx context.Context, l Locker, key string, lease time.Duration, fn func(context.Context) error) (err error) {
	h, aerr := l.Acquire(ctx, key, lease)
	if aerr != nil {
		return aerr
	}
	defer func() {
		rerr := h.Release(context.Background())
		if err == nil {
			err = rerr
		}
	}()
	return fn(ctx)
}
