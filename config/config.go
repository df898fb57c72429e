// Package config provides environment-based configuration for the locklab
// binaries.
package config

import (
	"os"
	"time"
)

const (
	// DefaultLockLease is the lease applied to locks when none is configured.
	DefaultLockLease = 5 * time.Second

	// DefaultRetryInterval is the pause between blocking acquisition attempts.
	DefaultRetryInterval = 20 * time.Millisecond
)

// Config holds the application configuration.
type Config struct {
	// Port is the demo HTTP server port.
	Port string

	// RedisAddr is the address of the Redis backing store.
	RedisAddr string

	// PostgresDSN optionally points the critical resource at Postgres
	// instead of Redis.
	PostgresDSN string

	// LogLevel is the zerolog level name.
	LogLevel string

	// LockLease is the lease duration written with every lock entry.
	LockLease time.Duration

	// RetryInterval is the pause between blocking acquisition attempts.
	RetryInterval time.Duration
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LockLease:     getEnvDurationOrDefault("LOCK_LEASE", DefaultLockLease),
		RetryInterval: getEnvDurationOrDefault("LOCK_RETRY_INTERVAL", DefaultRetryInterval),
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault returns the environment variable parsed as a
// duration, or the default if not set or invalid.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
