package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository_TrimsToSize(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewHistoryRepository(NewRedisClientFrom(client), 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Append(ctx, hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(float64(i * 10))}))
	}

	n, err := repo.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 50.0, *recent[0].CPUPercent)
	assert.Equal(t, 40.0, *recent[1].CPUPercent)

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSessionRepository(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewSessionRepository(NewRedisClientFrom(client), time.Minute)
	ctx := context.Background()

	session := &model.Session{
		ID:    "s1",
		Kind:  model.SessionKindBrainstorm,
		Topic: "green energy",
		Data:  json.RawMessage(`{"ideas":[]}`),
	}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, model.SessionKindBrainstorm, "s1")
	require.NoError(t, err)
	assert.Equal(t, "green energy", got.Topic)

	_, err = repo.Get(ctx, model.SessionKindMindmap, "s1")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	list, err := repo.List(ctx, model.SessionKindBrainstorm)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mr.FastForward(2 * time.Minute)
	list, err = repo.List(ctx, model.SessionKindBrainstorm)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Save(ctx, session))
	require.NoError(t, repo.Delete(ctx, model.SessionKindBrainstorm, "s1"))
	assert.ErrorIs(t, repo.Delete(ctx, model.SessionKindBrainstorm, "s1"), interfaces.ErrNotFound)
}

func TestRateLimiter(t *testing.T) {
	_, client := newTestClient(t)
	limiter := NewRateLimiter(NewRedisClientFrom(client), 2, time.Minute)
	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "limits are per client")

	now = now.Add(61 * time.Second)
	ok, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window slides")
}

func TestTaskResultRepository(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewTaskResultRepository(NewRedisClientFrom(client))
	ctx := context.Background()

	task := &model.Task{ID: "t1", Kind: model.TaskKindComplete, Status: model.TaskStatusPending}
	require.NoError(t, repo.Save(ctx, task, time.Hour))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, got.Status)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

var (
	_ interfaces.SnapshotHistory = (*HistoryRepository)(nil)
	_ interfaces.SessionStore    = (*SessionRepository)(nil)
	_ interfaces.RateLimiter     = (*RateLimiter)(nil)
	_ interfaces.TaskResultStore = (*TaskResultRepository)(nil)
)
