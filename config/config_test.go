package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, DefaultLockLease, cfg.LockLease)
	require.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCK_LEASE", "2s")
	t.Setenv("LOCK_RETRY_INTERVAL", "50ms")

	cfg := Load()
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 2*time.Second, cfg.LockLease)
	require.Equal(t, 50*time.Millisecond, cfg.RetryInterval)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("LOCK_LEASE", "not-a-duration")
	cfg := Load()
	require.Equal(t, DefaultLockLease, cfg.LockLease)
}
