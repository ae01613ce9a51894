package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/store/sqlstore/model"

	"gorm.io/gorm"
)

// ExecutionRepository handles execution log persistence
type ExecutionRepository struct {
	ds *Datastore
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(ds *Datastore) *ExecutionRepository {
	return &ExecutionRepository{ds: ds}
}

// Create inserts a record
func (r *ExecutionRepository) Create(ctx context.Context, record *domain.ExecutionRecord) error {
	if err := r.ds.DB(ctx).Create(ToExecutionModel(record)).Error; err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// Get retrieves a record by execution id
func (r *ExecutionRepository) Get(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	var row model.Execution
	err := r.ds.DB(ctx).Where("execution_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("execution %s: %w", id, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return ToExecutionDomain(&row), nil
}

// List returns matching records, newest first
func (r *ExecutionRepository) List(ctx context.Context, filter domain.ExecutionFilter) ([]*domain.ExecutionRecord, error) {
	var rows []model.Execution
	if err := listQuery(r.ds.DB(ctx), filter).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	records := make([]*domain.ExecutionRecord, 0, len(rows))
	for i := range rows {
		records = append(records, ToExecutionDomain(&rows[i]))
	}
	return records, nil
}

func listQuery(db *gorm.DB, filter domain.ExecutionFilter) *gorm.DB {
	q := db.Model(&model.Execution{})
	if filter.TaskName != "" {
		q = q.Where("task_name = ?", filter.TaskName)
	}
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q
}

// DeleteOlderThan removes records created before t
func (r *ExecutionRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	result := r.ds.DB(ctx).Where("created_at < ?", t).Delete(&model.Execution{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete executions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close closes the underlying datastore
func (r *ExecutionRepository) Close() error {
	return r.ds.Close()
}
