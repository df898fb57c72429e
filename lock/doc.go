// Package lock provides a distributed mutual-exclusion lock over an atomic
// key-value store. Acquisition is a single conditional set with a lease TTL;
// release is an atomic compare-and-delete keyed on the holder's token, so a
// stale release can never evict a different holder. A holder that dies
// without releasing is recovered at the store layer when its lease expires.
package lock
