package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/notification"
	"hybridmcp/pkg/status"

	"github.com/google/uuid"
)

// LocalFunc runs a task in-process. The result is JSON encoded into the execution output.
type LocalFunc func(ctx context.Context) (interface{}, error)

// RemoteInvoker invokes remote functions
type RemoteInvoker interface {
	Enabled() bool
	AppFor(category string) (string, error)
	Invoke(ctx context.Context, req functions.FunctionRequest) (*functions.FunctionResponse, error)
}

// FailureNotifier receives alerts for executions that failed
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, failure *notification.ExecutionFailure) error
}

const notifyTimeout = 15 * time.Second

// ExecutionResult outcome of a routed execution
type ExecutionResult struct {
	ID           string                 `json:"id"`
	Decision     hybrid.RoutingDecision `json:"decision"`
	Location     hybrid.Target          `json:"location"`
	FallbackUsed bool                   `json:"fallback_used"`
	Output       json.RawMessage        `json:"output,omitempty"`
	Duration     time.Duration          `json:"duration"`
	Cost         float64                `json:"cost"` // reported by the remote function
}

// Decode unmarshals the output into v
func (r *ExecutionResult) Decode(v interface{}) error {
	if len(r.Output) == 0 {
		return fmt.Errorf("execution %s produced no output", r.ID)
	}
	return json.Unmarshal(r.Output, v)
}

// RunningTask a task currently executing
type RunningTask struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Location  hybrid.Target `json:"location"`
	StartedAt time.Time     `json:"started_at"`
}

// SystemStatus hybrid execution status
type SystemStatus struct {
	Resources      hybrid.ResourceSnapshot `json:"resources"`
	Summary        monitoring.Summary      `json:"summary"`
	Thresholds     hybrid.Thresholds       `json:"thresholds"`
	RemoteEnabled  bool                    `json:"remote_enabled"`
	RunningTasks   int                     `json:"running_tasks"`
	Running        []RunningTask           `json:"running"`
	HistorySize    int                     `json:"history_size"`
	LocalPreferred bool                    `json:"local_preferred"`
}

// ExecutionService routes tasks between local and remote execution
type ExecutionService struct {
	router     *hybrid.Router
	sampler    monitoring.Sampler
	aggregator *monitoring.Aggregator
	remote     RemoteInvoker
	store      interfaces.ExecutionStore
	fallback   bool
	notifier   FailureNotifier

	mu      sync.Mutex
	running map[string]RunningTask
}

// NewExecutionService creates an execution service. remote and store may be nil.
func NewExecutionService(router *hybrid.Router, sampler monitoring.Sampler, aggregator *monitoring.Aggregator,
	remote RemoteInvoker, store interfaces.ExecutionStore, fallbackOnFailure bool) *ExecutionService {
	return &ExecutionService{
		router:     router,
		sampler:    sampler,
		aggregator: aggregator,
		remote:     remote,
		store:      store,
		fallback:   fallbackOnFailure,
		running:    make(map[string]RunningTask),
	}
}

// SetNotifier sets the failure notifier
func (s *ExecutionService) SetNotifier(n FailureNotifier) {
	s.notifier = n
}

// Router returns the router
func (s *ExecutionService) Router() *hybrid.Router {
	return s.router
}

// Sample takes a resource snapshot for routing. A partial sample is still
// returned; the router treats missing readings as unusable.
func (s *ExecutionService) Sample(ctx context.Context) hybrid.ResourceSnapshot {
	snap, err := s.sampler.Sample(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "resource sampling incomplete: %v", err)
	}
	return snap
}

// Decide routes task against snapshot, sampling when snapshot is nil
func (s *ExecutionService) Decide(ctx context.Context, snapshot *hybrid.ResourceSnapshot, task hybrid.TaskDescriptor) hybrid.RoutingDecision {
	var snap hybrid.ResourceSnapshot
	if snapshot != nil {
		snap = *snapshot
	} else {
		snap = s.Sample(ctx)
	}
	return s.router.Decide(ctx, snap, task)
}

// Execute decides where task runs and runs it there. When the first attempt
// fails and fallback is enabled, the task is retried once on the decision's
// alternative. If both attempts fail the joined error is returned.
func (s *ExecutionService) Execute(ctx context.Context, task hybrid.TaskDescriptor, local LocalFunc, payload interface{}) (*ExecutionResult, error) {
	decision := s.Decide(ctx, nil, task)
	result := &ExecutionResult{
		ID:       uuid.New().String(),
		Decision: decision,
		Location: decision.Target,
	}

	s.track(result.ID, task.Name, decision.Target)
	defer s.untrack(result.ID)

	start := time.Now()
	out, cost, err := s.run(ctx, decision.Target, task, local, payload)
	if err != nil && s.fallback && decision.Alternative != hybrid.TargetNone && ctx.Err() == nil {
		logger.WarnCtx(ctx, "task %q failed on %s, retrying on %s: %v", task.Name, decision.Target, decision.Alternative, err)
		result.FallbackUsed = true
		result.Location = decision.Alternative

		var retryErr error
		out, cost, retryErr = s.run(ctx, decision.Alternative, task, local, payload)
		if retryErr != nil {
			err = errors.Join(err, retryErr)
		} else {
			err = nil
		}
	}

	result.Output = out
	result.Cost = cost
	result.Duration = time.Since(start)
	s.record(ctx, task, result, err)

	if err != nil {
		logger.ErrorCtx(ctx, "task %q failed: %v", task.Name, err)
		s.notifyFailure(ctx, task, result, err)
		return result, err
	}
	logger.InfoCtx(ctx, "task %q completed on %s in %s", task.Name, result.Location, result.Duration)
	return result, nil
}

func (s *ExecutionService) run(ctx context.Context, target hybrid.Target, task hybrid.TaskDescriptor,
	local LocalFunc, payload interface{}) (json.RawMessage, float64, error) {
	start := time.Now()
	var (
		out  json.RawMessage
		cost float64
		err  error
	)
	if target == hybrid.TargetRemote {
		out, cost, err = s.runRemote(ctx, task, payload)
	} else {
		out, err = runLocal(ctx, local)
	}

	outcome := string(model.ExecutionStatusSucceeded)
	if err != nil {
		outcome = string(model.ExecutionStatusFailed)
	}
	metrics.RecordExecution(string(target), outcome, time.Since(start))
	return out, cost, err
}

func runLocal(ctx context.Context, local LocalFunc) (json.RawMessage, error) {
	if local == nil {
		return nil, ErrNoLocalFunction
	}
	v, err := local(ctx)
	if err != nil {
		return nil, err
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode local result: %w", err)
	}
	return data, nil
}

func (s *ExecutionService) runRemote(ctx context.Context, task hybrid.TaskDescriptor, payload interface{}) (json.RawMessage, float64, error) {
	if s.remote == nil || !s.remote.Enabled() {
		return nil, 0, ErrRemoteUnavailable
	}
	if task.FunctionName == "" {
		return nil, 0, fmt.Errorf("%w: task %q has no remote function", ErrRemoteUnavailable, task.Name)
	}
	app, err := s.remote.AppFor(functionCategory(task.FunctionName))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	resp, err := s.remote.Invoke(ctx, functions.FunctionRequest{
		App:     app,
		Name:    task.FunctionName,
		Payload: payload,
	})
	if err != nil {
		return nil, 0, err
	}
	return resp.Data, resp.CostEstimate, nil
}

// functionCategory maps "ideation/brainstorm" to "ideation"
func functionCategory(name string) string {
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return name
}

func (s *ExecutionService) track(id, name string, target hybrid.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[id] = RunningTask{ID: id, Name: name, Location: target, StartedAt: time.Now()}
	metrics.SetRunningExecutions(len(s.running))
}

func (s *ExecutionService) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
	metrics.SetRunningExecutions(len(s.running))
}

// Running returns the tasks currently executing
func (s *ExecutionService) Running() []RunningTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunningTask, 0, len(s.running))
	for _, t := range s.running {
		out = append(out, t)
	}
	return out
}

func (s *ExecutionService) record(ctx context.Context, task hybrid.TaskDescriptor, result *ExecutionResult, err error) {
	if s.store == nil {
		return
	}
	rec := &model.ExecutionRecord{
		ID:            result.ID,
		TaskName:      task.Name,
		Priority:      string(task.Priority),
		Location:      string(result.Location),
		Decision:      string(result.Decision.Target),
		Rationale:     result.Decision.Rationale,
		Confidence:    result.Decision.Confidence,
		EstimatedCost: result.Decision.EstimatedCost,
		FailSafe:      result.Decision.FailSafe,
		FallbackUsed:  result.FallbackUsed,
		Status:        model.ExecutionStatusSucceeded,
		DurationMs:    result.Duration.Milliseconds(),
		CreatedAt:     time.Now(),
	}
	if err != nil {
		rec.Status = model.ExecutionStatusFailed
		rec.Error = status.RedactError(err)
	}
	if err := s.store.Create(ctx, rec); err != nil {
		logger.ErrorCtx(ctx, "failed to record execution %s: %v", rec.ID, err)
	}
}

// notifyFailure alerts in the background. Caller cancellations are not alerted.
func (s *ExecutionService) notifyFailure(ctx context.Context, task hybrid.TaskDescriptor, result *ExecutionResult, err error) {
	if s.notifier == nil || errors.Is(err, context.Canceled) {
		return
	}
	failure := &notification.ExecutionFailure{
		ExecutionID:  result.ID,
		TaskName:     task.Name,
		Decision:     string(result.Decision.Target),
		Location:     string(result.Location),
		FallbackUsed: result.FallbackUsed,
		FailSafe:     result.Decision.FailSafe,
		Rationale:    result.Decision.Rationale,
		Error:        status.RedactError(err),
		OccurredAt:   time.Now(),
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.NotifyFailure(notifyCtx, failure); err != nil {
			logger.WarnCtx(notifyCtx, "failed to send failure alert for %s: %v", failure.ExecutionID, err)
		}
	}()
}

// Status reports resources, thresholds and running tasks
func (s *ExecutionService) Status(ctx context.Context) (*SystemStatus, error) {
	st, err := s.aggregator.Status(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource history: %w", err)
	}
	running := s.Running()
	return &SystemStatus{
		Resources:      st.Resources,
		Summary:        st.Summary,
		Thresholds:     s.router.Thresholds(),
		RemoteEnabled:  s.router.RemoteEnabled(),
		RunningTasks:   len(running),
		Running:        running,
		HistorySize:    s.aggregator.HistorySize(ctx),
		LocalPreferred: st.LocalPreferred,
	}, nil
}

// ListExecutions lists recorded executions newest first
func (s *ExecutionService) ListExecutions(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, error) {
	if s.store == nil {
		return []*model.ExecutionRecord{}, nil
	}
	return s.store.List(ctx, filter)
}

// GetExecution returns one execution record
func (s *ExecutionService) GetExecution(ctx context.Context, id string) (*model.ExecutionRecord, error) {
	if s.store == nil {
		return nil, interfaces.ErrNotFound
	}
	return s.store.Get(ctx, id)
}
