// Package redis wraps go-redis for the generation cache and the per-user
// daily generation quota.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Config struct {
	URL       string `mapstructure:"-"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Client struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New connects to the server described by cfg.URL (redis://...) and pings it.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewFromClient(rdb, cfg.KeyPrefix), nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb goredis.UniversalClient, prefix string) *Client {
	if prefix == "" {
		prefix = "n1study"
	}
	return &Client{rdb: rdb, prefix: strings.TrimSuffix(prefix, ":")}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// GetJSON decodes the cached value into out and reports whether it was found.
func (c *Client) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key("cache", key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key("cache", key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Incr increments the counter and makes it expire at resetAt. It returns the
// value after the increment.
func (c *Client) Incr(ctx context.Context, key string, resetAt time.Time) (int64, error) {
	k := c.key("quota", key)

	var incr *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireAt(ctx, k, resetAt)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("quota incr: %w", err)
	}
	return incr.Val(), nil
}

// Decr gives back one unit of quota, used when the guarded work failed.
func (c *Client) Decr(ctx context.Context, key string) error {
	if err := c.rdb.Decr(ctx, c.key("quota", key)).Err(); err != nil {
		return fmt.Errorf("quota decr: %w", err)
	}
	return nil
}
