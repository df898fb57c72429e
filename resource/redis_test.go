package resource

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisResource(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedisCounter(t *testing.T) {
	r, _ := newRedisResource(t)
	ctx := context.Background()

	v, err := r.ReadState(ctx, "c")
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, r.WriteState(ctx, "c", 7))
	v, err = r.ReadState(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

func TestRedisCounterNonNumeric(t *testing.T) {
	r, mr := newRedisResource(t)
	require.NoError(t, mr.Set("c", "not-a-number"))

	_, err := r.ReadState(context.Background(), "c")
	require.Error(t, err)
}

func TestRedisClaims(t *testing.T) {
	r, _ := newRedisResource(t)
	ctx := context.Background()

	ok, err := r.TryClaim(ctx, "room_1", "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.TryClaim(ctx, "room_1", "bob")
	require.NoError(t, err)
	require.False(t, ok)

	claimant, found, err := r.ClaimantOf(ctx, "room_1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", claimant)
}
