package server

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "offplan:forecast:"

// Cache stores rendered forecast responses keyed by request content.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// CacheKey derives a stable key from the request operation and body.
func CacheKey(op string, body []byte) string {
	digest := xxhash.New()
	_, _ = digest.WriteString(op)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.Write(body)
	return cacheKeyPrefix + strconv.FormatUint(digest.Sum64(), 16)
}

// MemoryCache is a bounded in-process LRU cache whose entries expire after a
// fixed lifetime.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryCache creates a cache holding at most capacity entries for ttl
// each. A zero ttl keeps entries until they are evicted.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](capacity, nil, ttl)}
}

// Get returns a copy of the cached value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

// Set stores a copy of value, evicting the least recently used entry when full.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache stores responses in redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis at addr.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the cached value. Connection errors are reported as misses.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores the value with the configured lifetime.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

// Close releases the client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
