package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryCounter(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()

	v, err := r.ReadState(ctx, "c")
	require.NoError(t, err)
	require.Zero(t, v, "unset counter reads as zero")

	require.NoError(t, r.WriteState(ctx, "c", 42))
	v, err = r.ReadState(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}

func TestInMemoryClaims(t *testing.T) {
	r := NewInMemory()
	ctx := context.Background()

	ok, err := r.TryClaim(ctx, "room_1", "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.TryClaim(ctx, "room_1", "bob")
	require.NoError(t, err)
	require.False(t, ok, "second claim must be refused")

	claimant, found, err := r.ClaimantOf(ctx, "room_1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", claimant)

	_, found, err = r.ClaimantOf(ctx, "room_2")
	require.NoError(t, err)
	require.False(t, found)
}
