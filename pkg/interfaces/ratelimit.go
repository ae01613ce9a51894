package interfaces

import "context"

// RateLimiter admits or rejects requests per client key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
