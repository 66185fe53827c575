// Package cache defines the port for the single-tour read cache.
package cache

import (
	"context"
	"time"
)

// Cache stores encoded tours by key. Implementations may drop entries at any
// time; callers fall back to the store on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits   uint64  `json:"hits"`
	Misses uint64  `json:"misses"`
	Ratio  float64 `json:"ratio"`
}

// StatsReporter is implemented by caches that track hits and misses.
type StatsReporter interface {
	Stats() Stats
}
