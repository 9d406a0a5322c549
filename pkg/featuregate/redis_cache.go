package featuregate

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/gatekit/pkg/redis"
)

// RedisFlagCache is a FlagCache shared across processes, storing flags
// as JSON under a common key prefix. Cache failures degrade to misses:
// evaluation must never break because the cache is down.
type RedisFlagCache struct {
	client    *goredis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisFlagCache creates a Redis-backed flag cache. Keys are stored
// as "<prefix><slug>" with the given TTL; a non-positive ttl defaults
// to one minute so stale flags cannot live forever in a shared cache.
func NewRedisFlagCache(client *goredis.Client, keyPrefix string, ttl time.Duration) *RedisFlagCache {
	if keyPrefix == "" {
		keyPrefix = "featuregate:flag:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisFlagCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// NewRedisFlagCacheFromConfig dials Redis with the connection settings
// from cfg and wraps the client in a flag cache. This is the env-driven
// path: load redis.Config through the config package and pass it here.
func NewRedisFlagCacheFromConfig(ctx context.Context, cfg redis.Config, keyPrefix string, ttl time.Duration) (*RedisFlagCache, error) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisFlagCache(client, keyPrefix, ttl), nil
}

func (c *RedisFlagCache) Get(ctx context.Context, slug string) (*Flag, bool) {
	payload, err := c.client.Get(ctx, c.keyPrefix+slug).Bytes()
	if err != nil {
		return nil, false
	}

	var flag Flag
	if err := json.Unmarshal(payload, &flag); err != nil {
		// Corrupt payload, drop it and treat as a miss.
		c.client.Del(ctx, c.keyPrefix+slug)
		return nil, false
	}
	return &flag, true
}

func (c *RedisFlagCache) Set(ctx context.Context, slug string, flag *Flag) {
	payload, err := json.Marshal(flag)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.keyPrefix+slug, payload, c.ttl)
}

func (c *RedisFlagCache) Remove(ctx context.Context, slug string) {
	c.client.Del(ctx, c.keyPrefix+slug)
}
