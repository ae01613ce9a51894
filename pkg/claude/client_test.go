package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"hybridmcp/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ClaudeConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Model:       "claude-test",
		MaxTokens:   256,
		Temperature: 0.5,
		Timeout:     5,
	})
}

func okHandler(t *testing.T, inspect func(r *http.Request, body apiRequest)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"claude-test","role":"assistant","stop_reason":"end_turn",
			"content":[{"type":"text","text":"Hello"},{"type":"text","text":" world"}],
			"usage":{"input_tokens":3,"output_tokens":2}}`)
	}
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, okHandler(t, func(r *http.Request, body apiRequest) {
		assert.Equal(t, messagesPath, r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "claude-test", body.Model)
		assert.Equal(t, 256, body.MaxTokens)
		assert.Equal(t, "be brief", body.System)
		require.Len(t, body.Messages, 2)
		assert.True(t, strings.HasPrefix(body.Messages[0].Content, "Context:\n"))
		assert.Equal(t, "say hi", body.Messages[1].Content)
	}))

	resp, err := c.Complete(context.Background(), CompletionRequest{
		Prompt:       "say hi",
		SystemPrompt: "be brief",
		Context:      map[string]interface{}{"project": "demo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestComplete_Validation(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	ctx := context.Background()
	hot := 1.5

	tests := []CompletionRequest{
		{Prompt: "  "},
		{Prompt: "x", MaxTokens: 200001},
		{Prompt: "x", MaxTokens: -1},
		{Prompt: "x", Temperature: &hot},
	}
	for _, req := range tests {
		_, err := c.Complete(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}

	_, err := c.Chat(ctx, ChatRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = c.Chat(ctx, ChatRequest{Messages: []Message{{Role: "system", Content: "x"}}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestComplete_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`)
	})

	_, err := c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "bad model", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}

func TestComplete_CircuitOpens(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Complete(ctx, CompletionRequest{Prompt: "x"})
		var apiErr *APIError
		assert.True(t, errors.As(err, &apiErr))
	}

	_, err := c.Complete(ctx, CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestChat(t *testing.T) {
	c := newTestClient(t, okHandler(t, func(r *http.Request, body apiRequest) {
		require.Len(t, body.Messages, 3)
		assert.Equal(t, RoleAssistant, body.Messages[1].Role)
	}))

	resp, err := c.Chat(context.Background(), ChatRequest{Messages: []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "how are you"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Content)
}

func TestStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"type":"message_start","message":{"model":"claude-test","usage":{"input_tokens":4}}}`,
			`{"type":"content_block_start","index":0}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`,
			`{"type":"message_stop"}`,
		}
		for _, ev := range events {
			fmt.Fprintf(w, "event: x\ndata: %s\n\n", ev)
		}
	})

	var deltas []string
	resp, err := c.Stream(context.Background(), CompletionRequest{Prompt: "x"}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 4, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestReadStream_ErrorEvent(t *testing.T) {
	stream := "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"par\"}}\n" +
		"data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n"

	resp, err := readStream(strings.NewReader(stream), nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "overloaded_error", apiErr.Type)
	assert.Equal(t, "par", resp.Content)
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[{"type":"text","text":"ok"}]}`)
	})
	assert.True(t, c.HealthCheck(context.Background()))
}

func TestFormatContext(t *testing.T) {
	out := FormatContext(map[string]interface{}{
		"b":    2,
		"a":    "x",
		"list": []interface{}{"p", "q"},
	})
	assert.True(t, strings.HasPrefix(out, "Context:\n- a: x\n- b: 2\n- list: ["))
	assert.Empty(t, FormatContext(nil))
}

func TestCodeAnalysisRequest(t *testing.T) {
	req, err := CodeAnalysisRequest("print(1)", "python", TaskReview)
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "review the following python code")
	assert.Contains(t, req.Prompt, "```python\nprint(1)\n```")
	assert.Contains(t, req.SystemPrompt, "expert python developer")

	req, err = CodeAnalysisRequest("x := 1", "go", "unknown")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "analyze the following go code")

	_, err = CodeAnalysisRequest("", "go", TaskDebug)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
