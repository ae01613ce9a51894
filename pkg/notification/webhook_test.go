package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hybridmcp/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
	status int
}

func (r *webhookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &body))

		r.mu.Lock()
		r.bodies = append(r.bodies, body)
		code := r.status
		r.mu.Unlock()
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
	}
}

func (r *webhookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func sampleFailure(task string) *ExecutionFailure {
	return &ExecutionFailure{
		ExecutionID:  "exec-1",
		TaskName:     task,
		Decision:     "REMOTE",
		Location:     "LOCAL",
		FallbackUsed: true,
		Rationale:    "CPU usage 95.0% exceeds threshold 80.0%",
		Error:        "remote down",
		OccurredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyFailure_JSON(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotificationConfig{WebhookURL: srv.URL})
	require.NoError(t, n.NotifyFailure(context.Background(), sampleFailure("brainstorm")))

	require.Equal(t, 1, rec.count())
	body := rec.bodies[0]
	assert.Equal(t, "execution_failed", body["event"])
	failure, ok := body["failure"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "brainstorm", failure["task_name"])
	assert.Equal(t, true, failure["fallback_used"])
}

func TestNotifyFailure_Feishu(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotificationConfig{WebhookURL: srv.URL, Format: FormatFeishu})
	require.NoError(t, n.NotifyFailure(context.Background(), sampleFailure("brainstorm")))

	require.Equal(t, 1, rec.count())
	body := rec.bodies[0]
	assert.Equal(t, "interactive", body["msg_type"])
	card := body["card"].(map[string]interface{})
	header := card["header"].(map[string]interface{})
	assert.Equal(t, "red", header["template"])

	raw, err := json.Marshal(card["elements"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "REMOTE, then LOCAL")
	assert.Contains(t, string(raw), "remote down")
}

func TestNotifyFailure_Cooldown(t *testing.T) {
	rec := &webhookRecorder{}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := NewWebhookNotifier(config.NotificationConfig{WebhookURL: srv.URL, Cooldown: 60})
	n.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, n.NotifyFailure(ctx, sampleFailure("a")))
	require.NoError(t, n.NotifyFailure(ctx, sampleFailure("a")))
	require.NoError(t, n.NotifyFailure(ctx, sampleFailure("b")))
	assert.Equal(t, 2, rec.count())

	now = now.Add(61 * time.Second)
	require.NoError(t, n.NotifyFailure(ctx, sampleFailure("a")))
	assert.Equal(t, 3, rec.count())
}

func TestNotifyFailure_ErrorStatus(t *testing.T) {
	rec := &webhookRecorder{status: http.StatusBadGateway}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotificationConfig{WebhookURL: srv.URL})
	err := n.NotifyFailure(context.Background(), sampleFailure("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyFailure_Disabled(t *testing.T) {
	n := NewWebhookNotifier(config.NotificationConfig{})
	assert.False(t, n.Enabled())
	assert.NoError(t, n.NotifyFailure(context.Background(), sampleFailure("a")))
}
