// Package cache is the redis layer: palm-to-profile lookups with negative
// caching, terminal-key auth caching, and the rate-limit token buckets.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool sizing. Terminals poll in bursts, so a few idle connections are
// kept warm; the pool timeout stays under the terminal request timeout.
const (
	poolSize        = 10
	minIdleConns    = 2
	poolTimeout     = 4 * time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache wraps the redis client behind domain methods.
type Cache struct {
	client *redis.Client
}

// New connects to redis and verifies the connection before returning.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks redis connectivity, used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client for the activity event stream, which
// speaks redis streams directly. Everything else goes through Cache
// methods.
func (c *Cache) Client() *redis.Client {
	return c.client
}
