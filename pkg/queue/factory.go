package queue

import (
	"context"
	"time"

	"hybridmcp/pkg/config"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/queue/asynq"
	"hybridmcp/pkg/queue/local"
	"hybridmcp/pkg/queue/runner"
)

// NewTaskQueue creates the async task queue. With Redis enabled tasks go
// through asynq, otherwise they run on an in-process worker pool. It
// returns nil when the queue is disabled.
func NewTaskQueue(cfg *config.Config, results interfaces.TaskResultStore, processor runner.Processor) (interfaces.TaskQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}

	r := runner.New(results, processor, time.Duration(cfg.Queue.ResultTTL)*time.Second)
	timeout := time.Duration(cfg.Queue.TaskTimeout) * time.Second

	if !cfg.Redis.Enabled {
		logger.InfoCtx(context.Background(), "redis disabled, running async tasks in process with %d workers", cfg.Queue.Concurrency)
		return local.New(r, cfg.Queue.Concurrency, cfg.Queue.Concurrency*10, timeout), nil
	}

	m, err := asynq.NewManager(cfg, r)
	if err != nil {
		return nil, err
	}
	if err := m.Start(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
