package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	laberrors "github.com/seravalle/locklab/errors"
)

const defaultRedisOpTimeout = 5 * time.Second

// deleteIfEqualsScript deletes a key only when its value matches the
// argument. Running it server-side keeps the compare and the delete in one
// atomic step.
var deleteIfEqualsScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Redis implements AtomicStore using a Redis backend.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	timeout time.Duration
}

// WithTimeout sets the operation timeout for Redis calls.
func WithTimeout(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.timeout = d
	}
}

// NewRedis returns a new Redis store using the provided client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	o := redisOptions{timeout: defaultRedisOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis{client: client, timeout: o.timeout}
}

// SetIfAbsent implements AtomicStore.SetIfAbsent using SET NX PX.
func (s *Redis) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ok, err := s.client.SetNX(cctx, key, value, ttl).Result()
	if err != nil {
		return false, mapRedisErr(err)
	}
	return ok, nil
}

// DeleteIfEquals implements AtomicStore.DeleteIfEquals via a Lua script.
func (s *Redis) DeleteIfEquals(ctx context.Context, key, expected string) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := deleteIfEqualsScript.Run(cctx, s.client, []string{key}, expected).Int64()
	if err != nil && err != redis.Nil {
		return false, mapRedisErr(err)
	}
	return n == 1, nil
}

// Get implements AtomicStore.Get.
func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, err := s.client.Get(cctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapRedisErr(err)
	}
	return v, true, nil
}

func mapRedisErr(err error) error {
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded):
		return laberrors.ErrTimeout
	case stdErrors.Is(err, redis.ErrClosed):
		return laberrors.ErrConnectionClosed
	case stdErrors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
}
