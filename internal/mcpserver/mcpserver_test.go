package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/brainstorm"
	"hybridmcp/internal/plugin/creativity"
	"hybridmcp/internal/plugin/plugintest"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/store/memory"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T, replies ...string) (Deps, *plugintest.Client) {
	t.Helper()
	client := plugintest.NewClient(replies...)
	router, err := hybrid.NewRouter(hybrid.DefaultThresholds())
	require.NoError(t, err)

	sampler := &monitoring.StaticSampler{Snapshot: hybrid.ResourceSnapshot{
		CPUPercent:       hybrid.Percent(10),
		MemoryPercent:    hybrid.Percent(20),
		NetworkAvailable: true,
	}}
	exec := service.NewExecutionService(router, sampler, monitoring.NewAggregator(sampler, memory.NewHistory(10)),
		nil, memory.NewExecutionStore(10), true)

	pdeps := plugin.Deps{Exec: exec, Client: client, Sessions: memory.NewSessionStore(time.Hour)}
	return Deps{
		Completion: service.NewCompletionService(exec, client),
		Exec:       exec,
		Brainstorm: brainstorm.New(pdeps),
		Creativity: creativity.New(pdeps),
	}, client
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// listTools asks the server for its tools over JSON-RPC
func listTools(t *testing.T, deps Deps) []string {
	t.Helper()
	s := New(deps, "test")
	msg := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestNew_RegistersTools(t *testing.T) {
	deps, _ := newDeps(t, "ok")

	names := listTools(t, deps)
	assert.ElementsMatch(t, []string{"complete", "analyze_code", "vibe_code", "route_decision", "system_status", "brainstorm", "creativity_surge"}, names)

	deps.Brainstorm = nil
	deps.Creativity = nil
	names = listTools(t, deps)
	assert.NotContains(t, names, "brainstorm")
	assert.NotContains(t, names, "creativity_surge")
}

func TestCompleteTool(t *testing.T) {
	deps, client := newDeps(t, "forty-two")
	tool := NewCompleteTool(deps.Completion)

	def := tool.Definition()
	assert.Equal(t, "complete", def.Name)
	assert.Contains(t, def.InputSchema.Required, "prompt")

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"prompt":      "meaning of life",
		"max_tokens":  float64(256),
		"temperature": 0.2,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(res)
	assert.True(t, strings.HasPrefix(text, "forty-two"))
	assert.Contains(t, text, "Executed: local")
	assert.Equal(t, 256, client.Last().MaxTokens)
	require.NotNil(t, client.Last().Temperature)
	assert.InDelta(t, 0.2, *client.Last().Temperature, 1e-9)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAnalyzeCodeTool(t *testing.T) {
	deps, client := newDeps(t, "looks fine")
	tool := NewAnalyzeCodeTool(deps.Completion)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"code":     "x = 1",
		"language": "python",
		"task":     "review",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, client.Last().Prompt, "review the following python code")

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"code": ""}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestVibeCodeTool(t *testing.T) {
	deps, client := newDeps(t, "here you go")
	tool := NewVibeCodeTool(deps.Completion)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"request": "a retry helper",
		"context": map[string]interface{}{"language": "go"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "a retry helper", client.Last().Prompt)
	assert.Equal(t, "go", client.Last().Context["language"])
}

func TestRouteDecisionTool(t *testing.T) {
	deps, _ := newDeps(t)
	tool := NewRouteDecisionTool(deps.Exec)

	tests := []struct {
		name     string
		args     map[string]interface{}
		target   hybrid.Target
		failSafe bool
	}{
		{"sampled idle", map[string]interface{}{}, hybrid.TargetLocal, false},
		{"long task", map[string]interface{}{"estimated_duration_seconds": float64(900)}, hybrid.TargetRemote, false},
		{"duration beyond time.Duration", map[string]interface{}{"estimated_duration_seconds": float64(1e12)}, hybrid.TargetRemote, false},
		{"busy memory", map[string]interface{}{"cpu_percent": float64(10), "memory_percent": float64(90)}, hybrid.TargetRemote, false},
		{"partial readings fail safe", map[string]interface{}{"cpu_percent": float64(10)}, hybrid.TargetLocal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(tt.args))
			require.NoError(t, err)
			require.False(t, res.IsError)

			var out struct {
				Decision hybrid.RoutingDecision `json:"decision"`
			}
			require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
			assert.Equal(t, tt.target, out.Decision.Target)
			assert.Equal(t, tt.failSafe, out.Decision.FailSafe)
		})
	}
}

func TestRouteDecisionTool_NegativeDuration(t *testing.T) {
	deps, _ := newDeps(t)
	res, err := NewRouteDecisionTool(deps.Exec).Handle(context.Background(), makeReq(map[string]interface{}{
		"estimated_duration_seconds": float64(-5),
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "invalid estimated duration")
}

func TestSystemStatusTool(t *testing.T) {
	deps, _ := newDeps(t)
	res, err := NewSystemStatusTool(deps.Exec).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var st service.SystemStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &st))
	assert.True(t, st.RemoteEnabled)
	assert.Equal(t, hybrid.DefaultThresholds(), st.Thresholds)
}

func TestBrainstormTool(t *testing.T) {
	deps, client := newDeps(t,
		"1. A digital tool library\n2. A community repair evening",
		"- Revolutionary seed swap",
	)
	tool := NewBrainstormTool(deps.Brainstorm)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"topic":       "neighbourhood sharing",
		"constraints": []interface{}{"no budget", 3},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	text := resultText(res)
	assert.Contains(t, text, "1. A digital tool library")
	assert.Contains(t, client.Last().Prompt, "- no budget")

	start := strings.Index(text, "session ")
	end := strings.Index(text, ")")
	require.True(t, start >= 0 && end > start)
	id := text[start+len("session ") : end]

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"topic": "", "session_id": id}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	assert.Contains(t, resultText(res), "3. Revolutionary seed swap")

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"topic": "x", "session_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCreativityTool(t *testing.T) {
	deps, client := newDeps(t, "1. A unique rooftop garden\n- Practical seed library")
	tool := NewCreativityTool(deps.Creativity)
	assert.Contains(t, tool.Definition().InputSchema.Required, "challenge")

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"challenge":        "green the office",
		"intensity":        "high",
		"duration_minutes": float64(3),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	text := resultText(res)
	assert.Contains(t, text, "## Creativity surge (divergent_thinking)")
	assert.Contains(t, text, "1. A unique rooftop garden [creativity 0.65")
	assert.Contains(t, text, "2. Practical seed library")
	assert.Contains(t, text, "High creative energy unleashed - 2 ideas blazing!")
	assert.Contains(t, client.Last().Prompt, "Duration: 3 minutes")

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"challenge": "x", "technique": "sideways"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "creativity surge failed")

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolErrorsAreRedacted(t *testing.T) {
	deps, client := newDeps(t)
	client.Err = &claude.APIError{StatusCode: 429, Type: "rate_limit_error", Message: "slow down, key sk-ant-leaked123"}
	tool := NewCompleteTool(deps.Completion)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"prompt": "hi"}))
	require.NoError(t, err)
	require.True(t, res.IsError)

	text := resultText(res)
	assert.Contains(t, text, "completion failed")
	assert.Contains(t, text, "[api-key]")
	assert.NotContains(t, text, "sk-ant-leaked123")
	assert.Contains(t, text, "rate limit")
}
