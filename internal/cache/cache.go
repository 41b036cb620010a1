// Package cache provides the short-TTL result cache in front of the
// retrieval client. A miss always falls through safely; nothing
// depends on this cache for correctness.
package cache

import (
	"context"
	"time"
)

// Default TTLs per logical operation, ordered by expected volatility.
const (
	TTLThreats = 30 * time.Second
	TTLLogs    = time.Minute
	TTLStats   = 5 * time.Minute
)

// Store is a byte-oriented TTL store. Implementations must allow
// concurrent Get/Set on different keys without blocking each other;
// concurrent Set on the same key is last-write-wins.
type Store interface {
	// Get returns the value if present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set overwrites any existing entry with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Close releases background resources.
	Close() error
}
