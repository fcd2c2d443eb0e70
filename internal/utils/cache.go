package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem wraps a cached value with its expiry.
type CacheItem struct {
	Data      any
	ExpiresAt time.Time
}

// TTLCache is a bounded LRU cache whose entries also expire after a fixed
// time to live.
type TTLCache struct {
	lruCache *lru.Cache[string, CacheItem]
	ttl      time.Duration
	now      func() time.Time
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache(size int, ttl time.Duration) (*TTLCache, error) {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &TTLCache{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set stores data under key.
func (c *TTLCache) Set(key string, data any) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// Get returns the value under key, or false if it is missing or expired.
func (c *TTLCache) Get(key string) (any, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}

	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}

	return val.Data, true
}

// Flush drops every entry.
func (c *TTLCache) Flush() {
	c.lruCache.Purge()
}
