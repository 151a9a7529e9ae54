// Package cache caches fleet snapshots in Redis so concurrent readers (the
// API's polling endpoints) don't each recompute a snapshot under the
// environment's read lock on every request (spec §4.I, §6).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DefaultConfig returns a reasonable TTL for a snapshot that's refreshed
// every tick.
func DefaultConfig(addr string) Config {
	return Config{Addr: addr, TTL: 5 * time.Second}
}

// Cache wraps a Redis client.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs a Cache.
func New(cfg Config) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Second
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error { return c.rdb.Close() }

// Ping verifies connectivity to Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PutSnapshot stores v (already JSON-marshalable) under key with the
// configured TTL.
func (c *Cache) PutSnapshot(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// GetSnapshot loads a previously stored snapshot into dest, returning
// (false, nil) on a cache miss.
func (c *Cache) GetSnapshot(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get snapshot: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache: unmarshal snapshot: %w", err)
	}
	return true, nil
}
