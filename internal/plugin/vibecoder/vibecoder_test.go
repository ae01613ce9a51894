package vibecoder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/plugintest"
	"hybridmcp/pkg/claude"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(p *Plugin) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	p.RegisterRoutes(r.Group("/v1"))
	return r
}

func TestVibeCode(t *testing.T) {
	client := plugintest.NewClient("Here is the plan because clarity matters:\n- split the function\n- add tests\nDone.")
	p := New(plugin.Deps{Exec: &plugintest.Executor{}, Client: client})
	require.NoError(t, p.Initialize(context.Background()))

	body, _ := json.Marshal(Request{Request: "refactor my handler", Mood: "analytical", Focus: "performance", ExperienceLevel: "advanced"})
	w := httptest.NewRecorder()
	newRouter(p).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/vibe/code", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"- split the function", "- add tests"}, resp.Suggestions)
	assert.Equal(t, "Go Performance Tuning Guide", resp.Resources[0])
	assert.Len(t, resp.Resources, 3)
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)
	assert.Contains(t, resp.Reasoning, "Detailed reasoning")

	assert.Equal(t, "refactor my handler", client.Last().Prompt)
	assert.Contains(t, client.Last().SystemPrompt, "deep technical analysis")
	assert.Contains(t, client.Last().SystemPrompt, "performance optimization")
}

func TestVibeReviewAndExplainPrompts(t *testing.T) {
	client := plugintest.NewClient("ok")
	p := New(plugin.Deps{Exec: &plugintest.Executor{}, Client: client})
	ctx := context.Background()

	_, err := p.Generate(ctx, ModeReview, Request{Request: "x := 1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(client.Last().Prompt, "Please review this code:"))
	assert.Contains(t, client.Last().SystemPrompt, "When reviewing code")
	assert.Contains(t, client.Last().SystemPrompt, "reassurance")

	_, err = p.Generate(ctx, ModeExplain, Request{Request: "channels"})
	require.NoError(t, err)
	assert.Contains(t, client.Last().SystemPrompt, "When explaining concepts")
}

func TestVibe_InvalidRequest(t *testing.T) {
	p := New(plugin.Deps{Exec: &plugintest.Executor{}, Client: plugintest.NewClient()})
	w := httptest.NewRecorder()
	newRouter(p).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/vibe/code", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVibe_UpstreamError(t *testing.T) {
	p := New(plugin.Deps{Exec: &plugintest.Executor{}, Client: &plugintest.Client{Err: claude.ErrCircuitOpen}})
	w := httptest.NewRecorder()
	newRouter(p).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/vibe/explain", strings.NewReader(`{"request":"x"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStructure_ConfidenceBounds(t *testing.T) {
	long := strings.Repeat("a", 5000)
	assert.InDelta(t, 0.9, structure(long, Request{}).Confidence, 1e-9)
	assert.InDelta(t, 0.7, structure(strings.Repeat("a", 700), Request{}).Confidence, 1e-9)
}
