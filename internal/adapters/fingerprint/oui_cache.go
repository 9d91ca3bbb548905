package fingerprint

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when a non-positive cache size is requested.
const DefaultCacheSize = 1024

// OUICache is an LRU cache of OUI prefix to vendor name with hit accounting.
type OUICache struct {
	entries *lru.Cache[string, string]
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// NewOUICache creates a cache holding at most capacity prefixes.
func NewOUICache(capacity int) *OUICache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	// New only fails for a non-positive size.
	entries, _ := lru.New[string, string](capacity)
	return &OUICache{entries: entries}
}

// Get retrieves a vendor and marks the prefix as recently used.
func (c *OUICache) Get(prefix string) (string, bool) {
	v, ok := c.entries.Get(prefix)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set adds or updates a prefix, evicting the least recently used one if full.
func (c *OUICache) Set(prefix, vendor string) {
	c.entries.Add(prefix, vendor)
}

// Len returns the number of cached prefixes.
func (c *OUICache) Len() int {
	return c.entries.Len()
}

// Clear drops every entry. Counters are kept.
func (c *OUICache) Clear() {
	c.entries.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *OUICache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}

// Close releases the cached entries.
func (c *OUICache) Close() {
	c.entries.Purge()
}
