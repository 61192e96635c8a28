package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"movievault/internal/config"
)

// Client is a string cache over Redis, used for signed media URLs.
type Client struct {
	Cli *redis.Client
}

// NewRedis connects to cfg.RedisAddr and pings it.
func NewRedis(ctx context.Context, cfg *config.Config) (*Client, error) {
	r := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Cli: r}, nil
}

func (c *Client) Close() error {
	return c.Cli.Close()
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := c.Cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// Set stores value under key. A non-positive ttl is not cached at all.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Cli.Set(ctx, key, value, ttl).Err()
}
