package resource

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// newPostgresResource connects to the database named by POSTGRES_DSN. The
// tests are skipped when the variable is unset so the suite stays runnable
// without infrastructure.
func newPostgresResource(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	r := NewPostgres(pool)
	require.NoError(t, r.InitSchema(context.Background()))
	return r
}

func TestPostgresCounter(t *testing.T) {
	r := newPostgresResource(t)
	ctx := context.Background()
	id := "counter_" + uuid.NewString()

	v, err := r.ReadState(ctx, id)
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, r.WriteState(ctx, id, 3))
	require.NoError(t, r.WriteState(ctx, id, 9))
	v, err = r.ReadState(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(9), v)
}

func TestPostgresClaims(t *testing.T) {
	r := newPostgresResource(t)
	ctx := context.Background()
	id := "room_" + uuid.NewString()

	ok, err := r.TryClaim(ctx, id, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.TryClaim(ctx, id, "bob")
	require.NoError(t, err)
	require.False(t, ok)

	claimant, found, err := r.ClaimantOf(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", claimant)
}
