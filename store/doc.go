// Package store provides the atomic key-value backends the lock runs on:
// Redis via go-redis or redigo, and an in-memory implementation with
// wall-clock TTL expiry for tests and single-process use.
package store
