package schema

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig sizes the column cache
type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// DefaultCacheConfig returns the default column cache settings
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxEntries: 256,
		TTL:        5 * time.Minute,
	}
}

// CachedInspector memoizes another inspector's column lists per table.
// Repositories are built per request, so without it every request would
// re-read the catalog tables.
type CachedInspector struct {
	next   Inspector
	cache  *lru.LRU[string, []string]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedInspector wraps next with an expiring LRU cache
func NewCachedInspector(next Inspector, config *CacheConfig) *CachedInspector {
	if config == nil {
		config = DefaultCacheConfig()
	}
	maxEntries := config.MaxEntries
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachedInspector{
		next:  next,
		cache: lru.NewLRU[string, []string](maxEntries, nil, config.TTL),
	}
}

// Columns returns cached columns for table, inspecting on a miss
func (c *CachedInspector) Columns(ctx context.Context, table string) ([]string, error) {
	if cols, ok := c.cache.Get(table); ok {
		c.hits.Add(1)
		return append([]string(nil), cols...), nil
	}
	c.misses.Add(1)

	cols, err := c.next.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	c.cache.Add(table, append([]string(nil), cols...))
	return cols, nil
}

// Invalidate drops cached columns for tables, or everything when none are given
func (c *CachedInspector) Invalidate(tables ...string) {
	if len(tables) == 0 {
		c.cache.Purge()
		return
	}
	for _, t := range tables {
		c.cache.Remove(t)
	}
}

// Stats returns the hit and miss counts
func (c *CachedInspector) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
