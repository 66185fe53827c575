// Package ristretto implements the tour cache port on top of dgraph-io/ristretto.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/TourAgency/internal/port/cache"
)

// Cache holds encoded tours in process memory, costed by payload size.
// Writes are applied synchronously so a Get right after a Set or Delete
// observes it.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache bounded to maxCostBytes of payload.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		// A serialized tour is roughly 200 bytes; track ten keys per slot.
		NumCounters: max(maxCostBytes/200*10, 1000),
		MaxCost:     maxCostBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := c.c.Get(key)
	return val, found, nil
}

// Set stores value for ttl. A zero ttl never expires. The admission policy
// may still reject the value under memory pressure.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Clear drops every entry. Used after ids are renumbered.
func (c *Cache) Clear(_ context.Context) error {
	c.c.Clear()
	return nil
}

// Stats reports lookup counters collected by ristretto.
func (c *Cache) Stats() cache.Stats {
	m := c.c.Metrics
	return cache.Stats{Hits: m.Hits(), Misses: m.Misses(), Ratio: m.Ratio()}
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
