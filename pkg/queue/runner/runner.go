package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/status"
)

// Processor executes one task and reports where it ran
type Processor interface {
	Process(ctx context.Context, task *model.Task) (output json.RawMessage, location string, err error)
}

// Runner moves stored tasks through their lifecycle. Queue backends only
// deliver task ids; state lives in the result store.
type Runner struct {
	results   interfaces.TaskResultStore
	processor Processor
	ttl       time.Duration
	now       func() time.Time
}

// New creates a runner. ttl bounds how long finished tasks stay readable.
func New(results interfaces.TaskResultStore, processor Processor, ttl time.Duration) *Runner {
	return &Runner{results: results, processor: processor, ttl: ttl, now: time.Now}
}

// Accept stores task as pending
func (r *Runner) Accept(ctx context.Context, task *model.Task) error {
	now := r.now()
	task.Status = model.TaskStatusPending
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := r.results.Save(ctx, task, r.ttl); err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// Reject marks an accepted task failed before it ran
func (r *Runner) Reject(ctx context.Context, task *model.Task, reason error) error {
	now := r.now()
	task.Status = model.TaskStatusFailed
	task.Error = reason.Error()
	task.UpdatedAt = now
	task.CompletedAt = &now
	return r.results.Save(ctx, task, r.ttl)
}

// Get retrieves a task
func (r *Runner) Get(ctx context.Context, taskID string) (*model.Task, error) {
	return r.results.Get(ctx, taskID)
}

// Run executes the stored task. A failed attempt that is not final leaves
// the task pending so the backend can retry it.
func (r *Runner) Run(ctx context.Context, taskID string, final bool) error {
	task, err := r.results.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %s: %w", taskID, err)
	}
	if task.IsTerminal() {
		logger.WarnCtx(ctx, "task %s already %s, skipping redelivery", taskID, task.Status)
		return nil
	}

	started := r.now()
	task.Status = model.TaskStatusInProgress
	task.StartedAt = &started
	task.UpdatedAt = started
	if err := r.results.Save(ctx, task, r.ttl); err != nil {
		return fmt.Errorf("failed to mark task %s in progress: %w", taskID, err)
	}

	output, location, runErr := r.processor.Process(ctx, task)
	// the outcome is recorded even when the attempt was cancelled
	ctx = context.WithoutCancel(ctx)

	finished := r.now()
	task.UpdatedAt = finished
	task.Location = location
	switch {
	case runErr == nil:
		task.Status = model.TaskStatusCompleted
		task.Output = output
		task.Error = ""
		task.CompletedAt = &finished
	case final:
		task.Status = model.TaskStatusFailed
		task.Error = status.RedactError(runErr)
		task.CompletedAt = &finished
	default:
		task.Status = model.TaskStatusPending
		task.Error = status.RedactError(runErr)
	}

	if err := r.results.Save(ctx, task, r.ttl); err != nil {
		return fmt.Errorf("failed to save task %s result: %w", taskID, err)
	}

	if runErr != nil {
		logger.WarnCtx(ctx, "task %s (%s) failed after %v, final=%v: %v", taskID, task.Kind, finished.Sub(started), final, runErr)
		return runErr
	}
	logger.InfoCtx(ctx, "task %s (%s) completed %s in %v", taskID, task.Kind, location, finished.Sub(started))
	return nil
}
