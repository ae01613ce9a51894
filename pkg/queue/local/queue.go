// Package local runs async tasks on an in-process worker pool. It is used
// when no Redis is configured; tasks do not survive a restart.
package local

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/queue/runner"
)

var (
	// ErrQueueFull is returned when the buffer cannot take another task
	ErrQueueFull = errors.New("task queue is full")
	// ErrQueueClosed is returned after Close
	ErrQueueClosed = errors.New("task queue is closed")
)

// Queue in-process task queue
type Queue struct {
	runner  *runner.Runner
	timeout time.Duration
	jobs    chan string

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	pending   atomic.Int64
	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New starts workers goroutines reading from a buffer of the given size
func New(r *runner.Runner, workers, buffer int, timeout time.Duration) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = workers * 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		runner:  r,
		timeout: timeout,
		jobs:    make(chan string, buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue stores the task as pending and hands it to a worker
func (q *Queue) Enqueue(ctx context.Context, task *model.Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	if err := q.runner.Accept(ctx, task); err != nil {
		return err
	}
	select {
	case q.jobs <- task.ID:
		q.pending.Add(1)
		logger.InfoCtx(ctx, "task enqueued locally, task_id: %s, kind: %s", task.ID, task.Kind)
		return nil
	default:
		if err := q.runner.Reject(ctx, task, ErrQueueFull); err != nil {
			logger.WarnCtx(ctx, "failed to mark rejected task %s: %v", task.ID, err)
		}
		return ErrQueueFull
	}
}

// Get retrieves the task state
func (q *Queue) Get(ctx context.Context, taskID string) (*model.Task, error) {
	return q.runner.Get(ctx, taskID)
}

// Stats returns counters since start
func (q *Queue) Stats(context.Context) (*interfaces.QueueStats, error) {
	return &interfaces.QueueStats{
		PendingCount:   int(q.pending.Load()),
		ActiveCount:    int(q.active.Load()),
		CompletedCount: int(q.completed.Load()),
		FailedCount:    int(q.failed.Load()),
	}, nil
}

// Close stops accepting tasks, cancels running ones and waits for workers
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}

func (q *Queue) work() {
	defer q.wg.Done()
	for id := range q.jobs {
		q.pending.Add(-1)
		q.active.Add(1)

		ctx := q.ctx
		var cancel context.CancelFunc = func() {}
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(q.ctx, q.timeout)
		}
		err := q.runner.Run(ctx, id, true)
		cancel()

		q.active.Add(-1)
		if err != nil {
			q.failed.Add(1)
		} else {
			q.completed.Add(1)
		}
	}
}
