package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"hybridmcp/pkg/hybrid"

	"github.com/go-redis/redis/v8"
)

const (
	historyKey = "resources:history" // Newest-first list of snapshots
)

// HistoryRepository keeps a bounded resource snapshot history in a Redis list
type HistoryRepository struct {
	redis *redis.Client
	size  int
}

// NewHistoryRepository creates history repository holding at most size snapshots
func NewHistoryRepository(redisClient *RedisClient, size int) *HistoryRepository {
	return &HistoryRepository{
		redis: redisClient.GetClient(),
		size:  size,
	}
}

// Append pushes the snapshot and trims the list to size
func (r *HistoryRepository) Append(ctx context.Context, snapshot hybrid.ResourceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(r.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// Recent returns up to n snapshots, newest first
func (r *HistoryRepository) Recent(ctx context.Context, n int) ([]hybrid.ResourceSnapshot, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}

	items, err := r.redis.LRange(ctx, historyKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot history: %w", err)
	}

	snapshots := make([]hybrid.ResourceSnapshot, 0, len(items))
	for _, item := range items {
		var snap hybrid.ResourceSnapshot
		if err := json.Unmarshal([]byte(item), &snap); err != nil {
			// Skip corrupt entry
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// Len returns the number of stored snapshots
func (r *HistoryRepository) Len(ctx context.Context) (int, error) {
	n, err := r.redis.LLen(ctx, historyKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read history length: %w", err)
	}
	return int(n), nil
}
