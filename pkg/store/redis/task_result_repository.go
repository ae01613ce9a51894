package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"

	"github.com/go-redis/redis/v8"
)

const taskResultKeyPrefix = "task:result:" // task:result:{id}

// TaskResultRepository stores async task state and output with a TTL
type TaskResultRepository struct {
	redis *redis.Client
}

// NewTaskResultRepository creates task result repository
func NewTaskResultRepository(redisClient *RedisClient) *TaskResultRepository {
	return &TaskResultRepository{redis: redisClient.GetClient()}
}

// Save stores the task
func (r *TaskResultRepository) Save(ctx context.Context, task *model.Task, ttl time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := r.redis.Set(ctx, taskResultKeyPrefix+task.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Get retrieves the task
func (r *TaskResultRepository) Get(ctx context.Context, taskID string) (*model.Task, error) {
	data, err := r.redis.Get(ctx, taskResultKeyPrefix+taskID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("task %s: %w", taskID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}
