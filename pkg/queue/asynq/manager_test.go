package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/queue/runner"
	"hybridmcp/pkg/store/memory"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct{ err error }

func (p stubProcessor) Process(context.Context, *model.Task) (json.RawMessage, string, error) {
	return json.RawMessage(`{}`), "local", p.err
}

func TestNewManager_RequiresRedis(t *testing.T) {
	_, err := NewManager(&config.Config{}, nil)
	assert.Error(t, err)
}

func TestProcessTask(t *testing.T) {
	results := memory.NewTaskResultStore()
	m := &Manager{runner: runner.New(results, stubProcessor{}, time.Hour)}
	ctx := context.Background()

	require.NoError(t, m.runner.Accept(ctx, &model.Task{ID: "a", Kind: model.TaskKindComplete}))
	payload, _ := json.Marshal(taskPayload{TaskID: "a"})
	require.NoError(t, m.ProcessTask(ctx, asynq.NewTask(TypeTaskRun, payload)))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
}

func TestProcessTask_FinalFailureSkipsRetry(t *testing.T) {
	results := memory.NewTaskResultStore()
	m := &Manager{runner: runner.New(results, stubProcessor{err: errors.New("boom")}, time.Hour)}
	ctx := context.Background()

	require.NoError(t, m.runner.Accept(ctx, &model.Task{ID: "b", Kind: model.TaskKindComplete}))
	payload, _ := json.Marshal(taskPayload{TaskID: "b"})

	// without retry metadata the attempt counts as the last one
	err := m.ProcessTask(ctx, asynq.NewTask(TypeTaskRun, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	got, err := m.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusFailed, got.Status)
}

func TestProcessTask_BadPayload(t *testing.T) {
	m := &Manager{}
	err := m.ProcessTask(context.Background(), asynq.NewTask(TypeTaskRun, []byte("nope")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
