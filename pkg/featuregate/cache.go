package featuregate

import (
	"context"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/cache"
)

// LRUFlagCache is an in-process FlagCache backed by the generic LRU
// cache. Entries expire after the configured TTL so flag edits
// propagate without explicit invalidation.
type LRUFlagCache struct {
	lru *cache.LRUCache[string, *Flag]
	ttl time.Duration
}

// NewLRUFlagCache creates a flag cache holding up to capacity flags,
// each kept at most ttl. A non-positive ttl caches flags until LRU
// eviction.
func NewLRUFlagCache(capacity int, ttl time.Duration) *LRUFlagCache {
	return &LRUFlagCache{
		lru: cache.NewLRUCache[string, *Flag](capacity),
		ttl: ttl,
	}
}

func (c *LRUFlagCache) Get(_ context.Context, slug string) (*Flag, bool) {
	return c.lru.Get(slug)
}

func (c *LRUFlagCache) Set(_ context.Context, slug string, flag *Flag) {
	c.lru.PutTTL(slug, flag, c.ttl)
}

func (c *LRUFlagCache) Remove(_ context.Context, slug string) {
	c.lru.Remove(slug)
}
