package resource

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strconv"

	redis "github.com/redis/go-redis/v9"

	laberrors "github.com/seravalle/locklab/errors"
)

// Redis implements Counter and Claimable on a Redis backend. Counter values
// are plain GET/SET so a read-modify-write cycle stays racy without a lock;
// claims use SETNX so the store itself refuses a second claimant.
type Redis struct {
	client *redis.Client
}

// NewRedis returns a new Redis resource using the provided client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// ReadState implements Counter.ReadState.
func (r *Redis) ReadState(ctx context.Context, id string) (int64, error) {
	v, err := r.client.Get(ctx, id).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, mapResourceErr(err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %q holds non-numeric value %q", id, v)
	}
	return n, nil
}

// WriteState implements Counter.WriteState.
func (r *Redis) WriteState(ctx context.Context, id string, value int64) error {
	if err := r.client.Set(ctx, id, strconv.FormatInt(value, 10), 0).Err(); err != nil {
		return mapResourceErr(err)
	}
	return nil
}

// TryClaim implements Claimable.TryClaim.
func (r *Redis) TryClaim(ctx context.Context, id, claimant string) (bool, error) {
	ok, err := r.client.SetNX(ctx, id, claimant, 0).Result()
	if err != nil {
		return false, mapResourceErr(err)
	}
	return ok, nil
}

// ClaimantOf implements Claimable.ClaimantOf.
func (r *Redis) ClaimantOf(ctx context.Context, id string) (string, bool, error) {
	v, err := r.client.Get(ctx, id).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapResourceErr(err)
	}
	return v, true, nil
}

func mapResourceErr(err error) error {
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
