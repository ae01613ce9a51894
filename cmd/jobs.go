package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"hybridmcp/internal/jobs"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/store/memory"
	redisstore "hybridmcp/pkg/store/redis"
)

const (
	retentionInterval = time.Hour
	memoryGCInterval  = time.Minute
)

func (app *Application) initJobs() error {
	manager := jobs.NewManager(app.ctx)

	// Distributed locks keep replicas from running shared cleanups at the
	// same time. Without Redis the locks run in single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}

	// Sampling is host-local, every replica samples its own machine.
	if interval := time.Duration(app.config.Monitoring.SampleInterval) * time.Second; interval > 0 {
		manager.Register(newResourceSamplingJob(interval, app.aggregator))
	}

	if app.executionStore != nil && app.config.Store.Retention > 0 {
		retention := time.Duration(app.config.Store.Retention) * time.Hour
		lock := redisstore.NewDistributedLock(redisClient, "cleanup:execution-retention-lock")
		manager.Register(newExecutionRetentionJob(retentionInterval, retention, app.executionStore, lock))
	}

	// Redis-backed sessions and rate limit windows expire on their own.
	if sessions, ok := app.sessions.(*memory.SessionStore); ok {
		manager.Register(newMemoryCleanupJob("session-cleanup", memoryGCInterval, sessions.Cleanup))
	}
	if limiter, ok := app.rateLimiter.(*memory.RateLimiter); ok {
		manager.Register(newMemoryCleanupJob("ratelimit-cleanup", memoryGCInterval, limiter.Cleanup))
	}

	app.jobsManager = manager
	return nil
}

// resourceSamplingJob records a resource snapshot into the history.
type resourceSamplingJob struct {
	interval   time.Duration
	aggregator *monitoring.Aggregator
}

func newResourceSamplingJob(interval time.Duration, aggregator *monitoring.Aggregator) jobs.Job {
	return &resourceSamplingJob{
		interval:   interval,
		aggregator: aggregator,
	}
}

func (j *resourceSamplingJob) Name() string {
	return "resource-sampling"
}

func (j *resourceSamplingJob) Interval() time.Duration {
	return j.interval
}

func (j *resourceSamplingJob) Run(ctx context.Context) error {
	if j.aggregator == nil {
		return fmt.Errorf("aggregator not configured")
	}

	snap, err := j.aggregator.Collect(ctx)
	if err != nil {
		return err
	}
	logger.DebugCtx(ctx, "sampled resources: cpu=%s memory=%s gpu=%s network=%t",
		formatPercent(snap.CPUPercent), formatPercent(snap.MemoryPercent), formatPercent(snap.GPUPercent), snap.NetworkAvailable)
	return nil
}

func formatPercent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

// executionRetentionJob drops execution log records past the retention window.
type executionRetentionJob struct {
	interval        time.Duration
	retention       time.Duration
	store           interfaces.ExecutionStore
	distributedLock redisstore.Locker
	now             func() time.Time
}

func newExecutionRetentionJob(interval, retention time.Duration, store interfaces.ExecutionStore, lock redisstore.Locker) jobs.Job {
	return &executionRetentionJob{
		interval:        interval,
		retention:       retention,
		store:           store,
		distributedLock: lock,
		now:             time.Now,
	}
}

func (j *executionRetentionJob) Name() string {
	return "execution-retention"
}

func (j *executionRetentionJob) Interval() time.Duration {
	return j.interval
}

func (j *executionRetentionJob) Run(ctx context.Context) error {
	if j.store == nil {
		return fmt.Errorf("execution store not configured")
	}

	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running execution retention, skipping this cycle")
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	cutoff := j.now().Add(-j.retention)
	removed, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.InfoCtx(ctx, "removed %d execution records older than %s", removed, cutoff.Format(time.RFC3339))
	}
	return nil
}

// memoryCleanupJob evicts expired entries from an in-process store.
type memoryCleanupJob struct {
	name     string
	interval time.Duration
	cleanup  func(ctx context.Context) int
}

func newMemoryCleanupJob(name string, interval time.Duration, cleanup func(ctx context.Context) int) jobs.Job {
	return &memoryCleanupJob{
		name:     name,
		interval: interval,
		cleanup:  cleanup,
	}
}

func (j *memoryCleanupJob) Name() string {
	return j.name
}

func (j *memoryCleanupJob) Interval() time.Duration {
	return j.interval
}

func (j *memoryCleanupJob) Run(ctx context.Context) error {
	if n := j.cleanup(ctx); n > 0 {
		logger.DebugCtx(ctx, "%s evicted %d entries", j.name, n)
	}
	return nil
}
