package interfaces

import (
	"context"
	"time"

	"hybridmcp/internal/model"
)

// TaskQueue async task queue
// Supports multiple implementations like Redis/Asynq or an in-process worker.
type TaskQueue interface {
	// Enqueue persists the task and schedules it for execution
	Enqueue(ctx context.Context, task *model.Task) error

	// Get retrieves the task with its current status and output
	Get(ctx context.Context, taskID string) (*model.Task, error)

	// Stats retrieves queue statistics
	Stats(ctx context.Context) (*QueueStats, error)

	// Close closes queue connection
	Close() error
}

// TaskResultStore persists async task state between submit and poll
type TaskResultStore interface {
	Save(ctx context.Context, task *model.Task, ttl time.Duration) error
	Get(ctx context.Context, taskID string) (*model.Task, error)
}

// QueueStats queue statistics
type QueueStats struct {
	PendingCount   int `json:"pendingCount"`
	ActiveCount    int `json:"activeCount"`
	CompletedCount int `json:"completedCount"`
	FailedCount    int `json:"failedCount"`
	RetryCount     int `json:"retryCount"`
}
