package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	redigo "github.com/gomodule/redigo/redis"

	laberrors "github.com/seravalle/locklab/errors"
)

var redigoDeleteIfEquals = redigo.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Redigo implements AtomicStore over a redigo connection pool, for codebases
// that are already on redigo rather than go-redis.
type Redigo struct {
	pool *redigo.Pool
}

// NewRedigo returns a new Redigo store using the provided pool.
func NewRedigo(pool *redigo.Pool) *Redigo {
	return &Redigo{pool: pool}
}

// SetIfAbsent implements AtomicStore.SetIfAbsent using SET NX PX.
func (s *Redigo) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return false, mapRedigoErr(err)
	}
	defer conn.Close()

	args := []any{key, value}
	if ttl > 0 {
		ms := int64(ttl / time.Millisecond)
		if ms < 1 {
			ms = 1
		}
		args = append(args, "PX", ms)
	}
	args = append(args, "NX")
	reply, err := redigo.String(conn.Do("SET", args...))
	if err == redigo.ErrNil {
		return false, nil
	}
	if err != nil {
		return false, mapRedigoErr(err)
	}
	return reply == "OK", nil
}

// DeleteIfEquals implements AtomicStore.DeleteIfEquals via a Lua script.
func (s *Redigo) DeleteIfEquals(ctx context.Context, key, expected string) (bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return false, mapRedigoErr(err)
	}
	defer conn.Close()

	n, err := redigo.Int64(redigoDeleteIfEquals.Do(conn, key, expected))
	if err != nil {
		return false, mapRedigoErr(err)
	}
	return n == 1, nil
}

// Get implements AtomicStore.Get.
func (s *Redigo) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", false, mapRedigoErr(err)
	}
	defer conn.Close()

	v, err := redigo.String(conn.Do("GET", key))
	if err == redigo.ErrNil {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapRedigoErr(err)
	}
	return v, true, nil
}

func mapRedigoErr(err error) error {
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded):
		return laberrors.ErrTimeout
	case stdErrors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", laberrors.ErrStoreUnavailable, err)
	}
}
