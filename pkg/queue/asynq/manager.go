package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/queue/runner"

	"github.com/hibiken/asynq"
)

const (
	TypeTaskRun = "task:run"

	defaultQueue = "default"
)

type taskPayload struct {
	TaskID string `json:"task_id"`
}

// Manager queue manager backed by Redis
type Manager struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector *asynq.Inspector
	runner    *runner.Runner
	maxRetry  int
	timeout   time.Duration
}

// NewManager creates queue manager
func NewManager(cfg *config.Config, r *runner.Runner) (*Manager, error) {
	if cfg.Redis.Addr == "" {
		return nil, errors.New("asynq queue requires a redis address")
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				defaultQueue: 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Second
			},
		},
	)

	m := &Manager{
		client:    asynq.NewClient(redisOpt),
		server:    server,
		mux:       asynq.NewServeMux(),
		inspector: asynq.NewInspector(redisOpt),
		runner:    r,
		maxRetry:  cfg.Queue.MaxRetry,
		timeout:   time.Duration(cfg.Queue.TaskTimeout) * time.Second,
	}
	m.mux.HandleFunc(TypeTaskRun, m.ProcessTask)
	return m, nil
}

// Enqueue stores the task as pending and schedules it
func (m *Manager) Enqueue(ctx context.Context, task *model.Task) error {
	if err := m.runner.Accept(ctx, task); err != nil {
		return err
	}

	payload, err := json.Marshal(taskPayload{TaskID: task.ID})
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.TaskID(task.ID),
		asynq.Queue(defaultQueue),
		asynq.MaxRetry(m.maxRetry),
	}
	if m.timeout > 0 {
		opts = append(opts, asynq.Timeout(m.timeout))
	}

	info, err := m.client.EnqueueContext(ctx, asynq.NewTask(TypeTaskRun, payload), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.InfoCtx(ctx, "task enqueued, task_id: %s, kind: %s, queue: %s", task.ID, task.Kind, info.Queue)
	return nil
}

// Get retrieves the task state
func (m *Manager) Get(ctx context.Context, taskID string) (*model.Task, error) {
	return m.runner.Get(ctx, taskID)
}

// ProcessTask is the asynq handler for TypeTaskRun
func (m *Manager) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p taskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	final := retried >= maxRetry

	if err := m.runner.Run(ctx, p.TaskID, final); err != nil {
		if final {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// Stats retrieves default queue statistics
func (m *Manager) Stats(ctx context.Context) (*interfaces.QueueStats, error) {
	info, err := m.inspector.GetQueueInfo(defaultQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue info: %w", err)
	}
	return &interfaces.QueueStats{
		PendingCount:   info.Pending,
		ActiveCount:    info.Active,
		CompletedCount: info.Completed,
		FailedCount:    info.Failed,
		RetryCount:     info.Retry,
	}, nil
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close stops processing and closes client connections
func (m *Manager) Close() error {
	m.Stop()
	if err := m.inspector.Close(); err != nil {
		return err
	}
	return m.client.Close()
}
