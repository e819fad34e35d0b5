// Package cache provides a Redis-backed caching layer.
//
// Key strategy: supplier:v1:{sha256(key)}. Callers own their keys and TTLs
// (pkg/cnpj stores "company:"+cnpj, pkg/distance stores "geocode:"+label).
//
// The cache is fail-open: a nil Client or an unreachable server behaves as
// a permanent miss and writes are dropped.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "supplier:v1:"

// Client wraps redis.Client with JSON helpers.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New creates a new cache Client.
// addr example: "localhost:6379"
func New(addr, password string, db int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		MaxRetries:  1,
	})
	return &Client{rdb: rdb, logger: logger}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache: desabilitado")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// Key hashes a logical key into the namespaced Redis key.
func Key(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return keyPrefix + fmt.Sprintf("%x", h)
}

// GetJSON decodes the cached value for key into v. It reports false on a
// miss, including when Redis is unavailable.
func (c *Client) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, Key(key)).Bytes()
	if err == redis.Nil {
		return false, nil // cache miss
	}
	if err != nil {
		c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("cache: valor inválido para %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key with ttl. Redis errors are logged and dropped.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, Key(key), b, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}
