// Package aicache caches LLM results in Redis so identical requests (same
// resume text and job description, for example) do not hit the provider
// twice. A nil *Cache is valid and caches nothing.
package aicache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON value cache on top of a redis client.
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix sets the key prefix (default "placement:ai").
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the entry lifetime (default 24h).
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// New wraps rdb.
func New(rdb *redis.Client, opts ...Option) *Cache {
	c := &Cache{rdb: rdb, prefix: "placement:ai", ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Key hashes parts into a stable cache key under namespace.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) full(key string) string { return c.prefix + ":" + key }

// Get loads key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, c.full(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.count(ctx, "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("aicache: decode %s: %w", key, err)
	}
	c.count(ctx, "hit")
	return true, nil
}

// Set stores v under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("aicache: encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, c.full(key), raw, c.ttl).Err()
}

// count bumps the hit/miss counters; stats are best effort.
func (c *Cache) count(ctx context.Context, field string) {
	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, c.prefix+":stats", field, 1)
	pipe.HIncrBy(ctx, c.prefix+":stats:"+time.Now().UTC().Format("2006-01-02"), field, 1)
	pipe.Expire(ctx, c.prefix+":stats:"+time.Now().UTC().Format("2006-01-02"), 7*24*time.Hour)
	_, _ = pipe.Exec(ctx)
}

// Stats returns the cumulative hit and miss counters.
func (c *Cache) Stats(ctx context.Context) (hits, misses int64, err error) {
	if c == nil || c.rdb == nil {
		return 0, 0, nil
	}
	m, err := c.rdb.HGetAll(ctx, c.prefix+":stats").Result()
	if err != nil {
		return 0, 0, err
	}
	fmt.Sscan(m["hit"], &hits)
	fmt.Sscan(m["miss"], &misses)
	return hits, misses, nil
}
