package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter sliding-window limiter backed by a sorted set per client
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window for each key
func NewRateLimiter(redisClient *RedisClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient.GetClient(),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records the request and reports whether it is within the limit
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	redisKey := rateLimitKeyPrefix + key
	windowStart := now.Add(-r.window).UnixNano()

	pipe := r.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to read rate limit window: %w", err)
	}

	if int(count.Val()) >= r.limit {
		return false, nil
	}

	pipe = r.redis.TxPipeline()
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}
	return true, nil
}
