package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/notification"
	"hybridmcp/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu       sync.Mutex
	enabled  bool
	data     string
	err      error
	requests []functions.FunctionRequest
}

func (f *fakeRemote) Enabled() bool { return f.enabled }

func (f *fakeRemote) AppFor(category string) (string, error) {
	if category == "unknown" {
		return "", functions.ErrUnknownApp
	}
	return "mcp-" + category + "-functions", nil
}

func (f *fakeRemote) Invoke(_ context.Context, req functions.FunctionRequest) (*functions.FunctionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &functions.FunctionResponse{Success: true, StatusCode: 200, Data: json.RawMessage(f.data), CostEstimate: 0.002}, nil
}

func idleSnapshot() hybrid.ResourceSnapshot {
	return hybrid.ResourceSnapshot{
		CPUPercent:       hybrid.Percent(20),
		MemoryPercent:    hybrid.Percent(30),
		NetworkAvailable: true,
	}
}

func busySnapshot() hybrid.ResourceSnapshot {
	s := idleSnapshot()
	s.CPUPercent = hybrid.Percent(95)
	return s
}

func newExecutionService(t *testing.T, snap hybrid.ResourceSnapshot, remote RemoteInvoker, fallback bool) (*ExecutionService, *memory.ExecutionStore) {
	t.Helper()
	router, err := hybrid.NewRouter(hybrid.DefaultThresholds(),
		hybrid.WithRemoteEnabled(remote != nil && remote.Enabled()),
		hybrid.WithCostModel(hybrid.DefaultCostModel()))
	require.NoError(t, err)

	sampler := &monitoring.StaticSampler{Snapshot: snap}
	agg := monitoring.NewAggregator(sampler, memory.NewHistory(10))
	store := memory.NewExecutionStore(100)
	return NewExecutionService(router, sampler, agg, remote, store, fallback), store
}

func localResult(v string) LocalFunc {
	return func(context.Context) (interface{}, error) {
		return map[string]string{"result": v}, nil
	}
}

func failingLocal(err error) LocalFunc {
	return func(context.Context) (interface{}, error) {
		return nil, err
	}
}

var ideationTask = hybrid.TaskDescriptor{Name: "brainstorm_cats", FunctionName: "ideation/brainstorm_session"}

func TestExecute_Local(t *testing.T) {
	remote := &fakeRemote{enabled: true}
	svc, store := newExecutionService(t, idleSnapshot(), remote, true)
	ctx := context.Background()

	res, err := svc.Execute(ctx, ideationTask, localResult("local"), nil)
	require.NoError(t, err)
	assert.Equal(t, hybrid.TargetLocal, res.Location)
	assert.False(t, res.FallbackUsed)
	assert.JSONEq(t, `{"result":"local"}`, string(res.Output))
	assert.Empty(t, remote.requests)

	rec, err := store.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "local", rec.Location)
	assert.Equal(t, model.ExecutionStatusSucceeded, rec.Status)
	assert.Equal(t, "brainstorm_cats", rec.TaskName)
}

func TestExecute_Remote(t *testing.T) {
	remote := &fakeRemote{enabled: true, data: `{"result":"remote"}`}
	svc, _ := newExecutionService(t, busySnapshot(), remote, true)

	res, err := svc.Execute(context.Background(), ideationTask, localResult("local"), map[string]string{"topic": "cats"})
	require.NoError(t, err)
	assert.Equal(t, hybrid.TargetRemote, res.Location)
	assert.True(t, res.Decision.HasReason(hybrid.ReasonCPU))
	assert.JSONEq(t, `{"result":"remote"}`, string(res.Output))
	assert.InDelta(t, 0.002, res.Cost, 1e-12)

	require.Len(t, remote.requests, 1)
	assert.Equal(t, "mcp-ideation-functions", remote.requests[0].App)
	assert.Equal(t, "ideation/brainstorm_session", remote.requests[0].Name)
}

func TestExecute_FallbackToLocal(t *testing.T) {
	remote := &fakeRemote{enabled: true, err: errors.New("boom")}
	svc, store := newExecutionService(t, busySnapshot(), remote, true)
	ctx := context.Background()

	res, err := svc.Execute(ctx, ideationTask, localResult("local"), nil)
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, hybrid.TargetLocal, res.Location)
	assert.Equal(t, hybrid.TargetRemote, res.Decision.Target)

	rec, err := store.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, rec.FallbackUsed)
	assert.Equal(t, "remote", rec.Decision)
}

func TestExecute_FallbackToRemote(t *testing.T) {
	remote := &fakeRemote{enabled: true, data: `{"result":"remote"}`}
	svc, _ := newExecutionService(t, idleSnapshot(), remote, true)

	res, err := svc.Execute(context.Background(), ideationTask, failingLocal(errors.New("oom")), nil)
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, hybrid.TargetRemote, res.Location)
}

func TestExecute_BothFail(t *testing.T) {
	remoteErr := errors.New("remote down")
	localErr := errors.New("local crashed")
	remote := &fakeRemote{enabled: true, err: remoteErr}
	svc, store := newExecutionService(t, busySnapshot(), remote, true)
	ctx := context.Background()

	res, err := svc.Execute(ctx, ideationTask, failingLocal(localErr), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, remoteErr)
	assert.ErrorIs(t, err, localErr)
	assert.True(t, res.FallbackUsed)

	rec, getErr := store.Get(ctx, res.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.ExecutionStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "remote down")
}

func TestExecute_FallbackDisabled(t *testing.T) {
	remote := &fakeRemote{enabled: true, err: errors.New("remote down")}
	svc, _ := newExecutionService(t, busySnapshot(), remote, false)

	called := false
	res, err := svc.Execute(context.Background(), ideationTask, func(context.Context) (interface{}, error) {
		called = true
		return "x", nil
	}, nil)
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, res.FallbackUsed)
}

func TestExecute_FailSafeHasNoFallback(t *testing.T) {
	remote := &fakeRemote{enabled: true}
	snap := idleSnapshot()
	snap.CPUPercent = nil
	svc, _ := newExecutionService(t, snap, remote, true)

	res, err := svc.Execute(context.Background(), ideationTask, failingLocal(errors.New("oom")), nil)
	require.Error(t, err)
	assert.True(t, res.Decision.FailSafe)
	assert.False(t, res.FallbackUsed)
	assert.Empty(t, remote.requests)
}

func TestExecute_NoRemoteConfigured(t *testing.T) {
	svc, _ := newExecutionService(t, busySnapshot(), nil, true)

	res, err := svc.Execute(context.Background(), ideationTask, localResult("local"), nil)
	require.NoError(t, err)
	assert.Equal(t, hybrid.TargetLocal, res.Location)
	assert.Contains(t, res.Decision.Rationale, "remote unavailable")
}

func TestExecute_NoLocalFunction(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), nil, true)

	_, err := svc.Execute(context.Background(), ideationTask, nil, nil)
	assert.ErrorIs(t, err, ErrNoLocalFunction)
}

func TestExecute_UnknownFunctionApp(t *testing.T) {
	remote := &fakeRemote{enabled: true}
	svc, _ := newExecutionService(t, busySnapshot(), remote, false)

	task := ideationTask
	task.FunctionName = "unknown/fn"
	_, err := svc.Execute(context.Background(), task, nil, nil)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestExecute_TracksRunning(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), nil, true)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), ideationTask, func(context.Context) (interface{}, error) {
			close(started)
			<-release
			return "ok", nil
		}, nil)
		done <- err
	}()

	<-started
	running := svc.Running()
	require.Len(t, running, 1)
	assert.Equal(t, "brainstorm_cats", running[0].Name)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, svc.Running())
}

func TestDecide_ExplicitSnapshot(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), &fakeRemote{enabled: true}, true)
	ctx := context.Background()

	busy := busySnapshot()
	assert.Equal(t, hybrid.TargetRemote, svc.Decide(ctx, &busy, hybrid.TaskDescriptor{}).Target)
	assert.Equal(t, hybrid.TargetLocal, svc.Decide(ctx, nil, hybrid.TaskDescriptor{}).Target)
}

func TestStatus(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), &fakeRemote{enabled: true}, true)
	ctx := context.Background()

	_, err := svc.aggregator.Collect(ctx)
	require.NoError(t, err)

	st, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.RemoteEnabled)
	assert.True(t, st.LocalPreferred)
	assert.Equal(t, 1, st.HistorySize)
	assert.Zero(t, st.RunningTasks)
	assert.Equal(t, hybrid.DefaultThresholds(), st.Thresholds)
}

func TestListExecutions(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), nil, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Execute(ctx, ideationTask, localResult("x"), nil)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	recs, err := svc.ListExecutions(ctx, model.ExecutionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

type recordingNotifier struct {
	mu       sync.Mutex
	failures []*notification.ExecutionFailure
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, f *notification.ExecutionFailure) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, f)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

func TestExecute_NotifiesFailure(t *testing.T) {
	remote := &fakeRemote{enabled: true, err: errors.New("remote down x-functions-key=abc123")}
	svc, _ := newExecutionService(t, busySnapshot(), remote, true)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	res, err := svc.Execute(context.Background(), ideationTask, failingLocal(errors.New("local crashed")), nil)
	require.Error(t, err)

	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	got := notifier.failures[0]
	assert.Equal(t, res.ID, got.ExecutionID)
	assert.Equal(t, "brainstorm_cats", got.TaskName)
	assert.Equal(t, string(hybrid.TargetRemote), got.Decision)
	assert.Equal(t, string(hybrid.TargetLocal), got.Location)
	assert.True(t, got.FallbackUsed)
	assert.NotContains(t, got.Error, "abc123")
}

func TestExecute_SuccessAndCancelDoNotNotify(t *testing.T) {
	svc, _ := newExecutionService(t, idleSnapshot(), nil, false)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	_, err := svc.Execute(context.Background(), ideationTask, localResult("ok"), nil)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), ideationTask, failingLocal(context.Canceled), nil)
	require.ErrorIs(t, err, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, notifier.count())
}
