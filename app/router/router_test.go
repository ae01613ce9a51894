package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hybridmcp/app/handler"
	"hybridmcp/internal/model"
	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/plugintest"
	"hybridmcp/internal/plugin/vibecoder"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/queue/local"
	"hybridmcp/pkg/queue/runner"
	"hybridmcp/pkg/store/memory"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	engine *gin.Engine
	client *plugintest.Client
}

type serverOptions struct {
	opts  Options
	queue bool
}

func newTestServer(t *testing.T, so serverOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := plugintest.NewClient("hello from claude")
	hr, err := hybrid.NewRouter(hybrid.DefaultThresholds(), hybrid.WithCostModel(hybrid.DefaultCostModel()))
	require.NoError(t, err)

	sampler := &monitoring.StaticSampler{Snapshot: hybrid.ResourceSnapshot{
		CPUPercent:       hybrid.Percent(20),
		MemoryPercent:    hybrid.Percent(30),
		NetworkAvailable: true,
	}}
	agg := monitoring.NewAggregator(sampler, memory.NewHistory(10))
	exec := service.NewExecutionService(hr, sampler, agg, nil, memory.NewExecutionStore(100), true)
	completion := service.NewCompletionService(exec, client)

	tasks := service.NewTaskService(completion)
	if so.queue {
		q := local.New(runner.New(memory.NewTaskResultStore(), tasks, time.Hour), 2, 10, time.Minute)
		t.Cleanup(func() { _ = q.Close() })
		tasks.SetQueue(q)
	}

	registry := plugin.NewRegistry()
	require.NoError(t, registry.Register(vibecoder.New(plugin.Deps{Exec: exec, Client: client})))
	registry.Load(context.Background(), []string{vibecoder.Name})

	cfg := config.Default()
	r := NewRouter(
		handler.NewCompletionHandler(completion),
		handler.NewHybridHandler(exec),
		handler.NewTaskHandler(tasks),
		handler.NewSystemHandler(cfg, client, registry, "test"),
		registry,
		so.opts,
	)
	engine := gin.New()
	r.Setup(engine)
	return &testServer{engine: engine, client: client}
}

func (s *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.True(t, resp.ClaudeStatus)
	assert.Equal(t, 1, resp.PluginsLoaded)
	assert.Equal(t, "test", resp.Version)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.do(http.MethodGet, "/health", "")

	w := s.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hybridmcp_http_requests_total")
}

func TestComplete(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodPost, "/v1/complete", `{"prompt":"hi","max_tokens":100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.CompletionResult
	decode(t, w, &res)
	require.NotNil(t, res.Response)
	assert.Equal(t, "hello from claude", res.Response.Content)
	require.NotNil(t, res.Execution)
	assert.Equal(t, hybrid.TargetLocal, res.Execution.Location)
	assert.Equal(t, 100, s.client.Last().MaxTokens)

	w = s.do(http.MethodGet, "/v1/hybrid/executions?location=local", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count      int                      `json:"count"`
		Executions []*model.ExecutionRecord `json:"executions"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = s.do(http.MethodGet, "/v1/hybrid/executions/"+list.Executions[0].ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/v1/hybrid/executions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplete_Stream(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodPost, "/v1/complete", `{"prompt":"hi","stream":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello from claude", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestCompletionValidation(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	tests := []struct {
		path string
		body string
	}{
		{"/v1/complete", `{"prompt":""}`},
		{"/v1/complete", `not json`},
		{"/v1/chat", `{"messages":[]}`},
		{"/v1/analyze-code", `{"language":"go"}`},
		{"/v1/vibe-code", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestChatAndCodeEndpoints(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodPost, "/v1/chat", `{"messages":[{"role":"user","content":"hey"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hey", s.client.Last().Prompt)

	w = s.do(http.MethodPost, "/v1/analyze-code", `{"code":"func main() {}","language":"go","task":"review"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, s.client.Last().Prompt, "func main() {}")

	w = s.do(http.MethodPost, "/v1/vibe-code", `{"request":"a todo app","context":{"mood":"curious"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, s.client.Last().Prompt, "a todo app")
}

func TestHybridDecide(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	tests := []struct {
		name     string
		body     string
		target   hybrid.Target
		failSafe bool
	}{
		{"sampled readings", `{"name":"quick","estimated_duration_seconds":10}`, hybrid.TargetLocal, false},
		{"busy cpu", `{"name":"x","snapshot":{"cpu_percent":95,"memory_percent":10}}`, hybrid.TargetRemote, false},
		{"long task", `{"estimated_duration_seconds":900}`, hybrid.TargetRemote, false},
		{"duration beyond time.Duration", `{"estimated_duration_seconds":1e12}`, hybrid.TargetRemote, false},
		{"missing cpu", `{"snapshot":{"memory_percent":10}}`, hybrid.TargetLocal, true},
		{"network down", `{"snapshot":{"cpu_percent":95,"memory_percent":10,"network_available":false}}`, hybrid.TargetLocal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/hybrid/decide", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp handler.DecideResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.target, resp.Decision.Target)
			assert.Equal(t, tt.failSafe, resp.Decision.FailSafe)
			assert.NotEmpty(t, resp.Decision.Rationale)
			assert.NotNil(t, resp.Snapshot)
		})
	}
}

func TestHybridDecide_HugeDuration(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodPost, "/v1/hybrid/decide", `{"estimated_duration_seconds":1e12,"snapshot":{"cpu_percent":10,"memory_percent":10}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handler.DecideResponse
	decode(t, w, &resp)
	assert.Equal(t, hybrid.TargetRemote, resp.Decision.Target)
	assert.False(t, resp.Decision.FailSafe)
	assert.Contains(t, resp.Decision.Rationale, "duration")
	assert.NotContains(t, resp.Decision.Rationale, "negative")

	w = s.do(http.MethodPost, "/v1/hybrid/decide", `{"estimated_duration_seconds":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid estimated duration")
}

func TestHybridStatusAndThresholds(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/v1/hybrid/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st service.SystemStatus
	decode(t, w, &st)
	assert.True(t, st.LocalPreferred)
	assert.Equal(t, hybrid.DefaultThresholds(), st.Thresholds)

	w = s.do(http.MethodGet, "/v1/hybrid/thresholds", "")
	require.Equal(t, http.StatusOK, w.Code)
	var th hybrid.Thresholds
	decode(t, w, &th)
	assert.Equal(t, hybrid.DefaultThresholds(), th)

	w = s.do(http.MethodGet, "/v1/hybrid/executions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTasks(t *testing.T) {
	s := newTestServer(t, serverOptions{queue: true})

	w := s.do(http.MethodPost, "/v1/tasks", `{"kind":"complete","input":{"prompt":"later"}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var sub model.SubmitResponse
	decode(t, w, &sub)
	require.NotEmpty(t, sub.ID)

	assert.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/v1/tasks/"+sub.ID, "")
		if w.Code != http.StatusOK {
			return false
		}
		var task model.Task
		if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
			return false
		}
		return task.Status == model.TaskStatusCompleted && task.Location == string(hybrid.TargetLocal)
	}, 2*time.Second, 10*time.Millisecond)

	// The counter moves just after the result is saved
	assert.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/v1/tasks/stats", "")
		var stats interfaces.QueueStats
		return w.Code == http.StatusOK && json.Unmarshal(w.Body.Bytes(), &stats) == nil && stats.CompletedCount == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/tasks/unknown", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/tasks", `{"kind":"complete","input":{}}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/tasks", `{"kind":"paint","input":{}}`).Code)
}

func TestTasks_Disabled(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodPost, "/v1/tasks", `{"kind":"complete","input":{"prompt":"later"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPluginsAndSettings(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/v1/plugins", "")
	require.Equal(t, http.StatusOK, w.Code)
	var plugins struct {
		Plugins []plugin.Metadata `json:"plugins"`
	}
	decode(t, w, &plugins)
	require.Len(t, plugins.Plugins, 1)
	assert.Equal(t, vibecoder.Name, plugins.Plugins[0].Name)
	assert.True(t, plugins.Plugins[0].Enabled)

	w = s.do(http.MethodGet, "/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "api_key")
	var settings handler.SettingsResponse
	decode(t, w, &settings)
	assert.Equal(t, config.Default().Claude.Model, settings.ClaudeModel)

	w = s.do(http.MethodPost, "/v1/vibe/code", `{"request":"a parser"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, serverOptions{opts: Options{APIKey: "secret"}})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/settings", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/settings", "", "Authorization", "Bearer secret").Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, serverOptions{opts: Options{RateLimiter: memory.NewRateLimiter(2, time.Minute)}})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/settings", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/settings", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/v1/settings", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}

func TestStreamSocket(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/complete"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]string{"prompt": "stream me"}))

	var delta, done handler.StreamMessage
	require.NoError(t, ws.ReadJSON(&delta))
	assert.Equal(t, "delta", delta.Type)
	assert.Equal(t, "hello from claude", delta.Text)
	require.NoError(t, ws.ReadJSON(&done))
	assert.Equal(t, "done", done.Type)
	require.NotNil(t, done.Response)

	require.NoError(t, ws.WriteJSON(map[string]string{"prompt": ""}))
	var bad handler.StreamMessage
	require.NoError(t, ws.ReadJSON(&bad))
	assert.Equal(t, "error", bad.Type)
}
