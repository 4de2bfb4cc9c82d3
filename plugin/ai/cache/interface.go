// Package cache provides in-process caches for lookups that repeat across messages.
package cache

import (
	"context"
	"time"
)

// Cache defines the cache service interface.
type Cache[V any] interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) (V, bool)

	// Set stores a value in cache.
	// ttl: expiration time, zero means the default TTL
	Set(ctx context.Context, key string, value V, ttl time.Duration)

	// Invalidate invalidates cache entries.
	// pattern: supports a trailing wildcard (telegram:*)
	Invalidate(ctx context.Context, pattern string) int
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}
