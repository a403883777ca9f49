package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache memoizes fetched pages for the life of a process, so a
// citation URL shared by many sentences or topics is downloaded once.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value; a zero TTL uses the cache default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Remember returns the cached value for key, or computes, stores and returns
// it. Errors from compute are returned as is and nothing is stored.
func (c *MemoryCache) Remember(key string, compute func() ([]byte, error)) ([]byte, error) {
	if val, ok := c.Get(key); ok {
		return val, nil
	}

	val, err := compute()
	if err != nil {
		return nil, err
	}
	_ = c.Set(key, val, 0)
	return val, nil
}

// Len returns the number of unexpired entries
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
