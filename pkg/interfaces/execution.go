package interfaces

import (
	"context"
	"time"

	"hybridmcp/internal/model"
)

// ExecutionStore persists execution audit records
type ExecutionStore interface {
	Create(ctx context.Context, record *model.ExecutionRecord) error
	Get(ctx context.Context, id string) (*model.ExecutionRecord, error)
	List(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, error)
	// DeleteOlderThan removes records created before t and returns how many were removed
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
	Close() error
}
