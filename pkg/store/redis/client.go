// Package redis holds the Redis-backed shared state: snapshot history,
// plugin sessions, rate limit counters, async task results and the
// distributed lock used by background jobs.
package redis

import (
	"context"
	"fmt"
	"time"

	"hybridmcp/pkg/config"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 5 * time.Second

// RedisClient shared connection used by every repository in this package
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFrom wraps an existing client
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// GetClient returns the underlying client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// Ping reports whether Redis is reachable
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
