package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"atlas/internal/adapters/config"
	"atlas/pkg/errors"
)

// Client wraps go-redis with the JSON cache and lock helpers the rest
// of the app uses. Values are stored JSON-encoded.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and verifies the connection with a ping
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Set stores a JSON-encoded value with a TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode cache value for %s", key)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value at key into dest. Returns the driver's miss
// error (redis.Nil) when the key is absent or expired.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// AcquireLock takes a distributed lock via SETNX. Returns false when
// another holder already owns it.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockKey(key), "1", ttl).Result()
}

// ReleaseLock frees a lock taken with AcquireLock
func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, lockKey(key)).Err()
}

func lockKey(key string) string {
	return "lock:" + key
}
