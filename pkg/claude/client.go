package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"hybridmcp/pkg/breaker"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
)

const (
	apiVersion   = "2023-06-01"
	messagesPath = "/v1/messages"
)

// Client Anthropic Messages API client
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	breaker     *breaker.CircuitBreaker
}

// NewClient creates a new Claude API client
func NewClient(cfg config.ClaudeConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     breaker.New("claude", breaker.DefaultSettings(), countsAgainstBreaker),
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// countsAgainstBreaker client-side mistakes never trip the breaker
func countsAgainstBreaker(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return !errors.Is(err, ErrInvalidRequest) && !errors.Is(err, context.Canceled)
}

// Complete completes a single prompt
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Response, error) {
	body, err := c.completionBody(req)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "claude completion with model %s", c.model)
	return c.send(ctx, body)
}

// Chat continues a conversation
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	body, err := c.chatBody(req)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "claude chat with %d messages", len(req.Messages))
	return c.send(ctx, body)
}

// HealthCheck reports whether the API answers a trivial prompt
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.Complete(ctx, CompletionRequest{
		Prompt:    "Hello, please respond with 'OK' if you can hear me.",
		MaxTokens: 10,
	})
	if err != nil {
		logger.WarnCtx(ctx, "claude health check failed: %v", err)
		return false
	}
	return strings.Contains(strings.ToUpper(resp.Content), "OK")
}

func (c *Client) completionBody(req CompletionRequest) (*apiRequest, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", ErrInvalidRequest)
	}

	messages := make([]Message, 0, 2)
	if len(req.Context) > 0 {
		messages = append(messages, Message{Role: RoleUser, Content: FormatContext(req.Context)})
	}
	messages = append(messages, Message{Role: RoleUser, Content: req.Prompt})

	return c.buildBody(messages, req.SystemPrompt, req.MaxTokens, req.Temperature)
}

func (c *Client) chatBody(req ChatRequest) (*apiRequest, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", ErrInvalidRequest)
	}
	for i, m := range req.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: message %d has unsupported role %q", ErrInvalidRequest, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("%w: message %d is empty", ErrInvalidRequest, i)
		}
	}
	return c.buildBody(req.Messages, req.SystemPrompt, req.MaxTokens, req.Temperature)
}

func (c *Client) buildBody(messages []Message, system string, maxTokens int, temperature *float64) (*apiRequest, error) {
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens < 1 || maxTokens > maxTokensLimit {
		return nil, fmt.Errorf("%w: max tokens must be between 1 and %d, got %d", ErrInvalidRequest, maxTokensLimit, maxTokens)
	}
	temp := c.temperature
	if temperature != nil {
		temp = *temperature
	}
	if temp < 0 || temp > 1 {
		return nil, fmt.Errorf("%w: temperature must be between 0.0 and 1.0, got %v", ErrInvalidRequest, temp)
	}

	return &apiRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temp,
		System:      system,
		Messages:    messages,
	}, nil
}

// FormatContext renders context as a readable "Context:" block with sorted keys
func FormatContext(ctx map[string]interface{}) string {
	if len(ctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Context:\n")
	for _, k := range keys {
		switch v := ctx[k].(type) {
		case map[string]interface{}, []interface{}, []string:
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				fmt.Fprintf(&b, "- %s: %v\n", k, v)
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", k, data)
		default:
			fmt.Fprintf(&b, "- %s: %v\n", k, v)
		}
	}
	return b.String()
}

func (c *Client) send(ctx context.Context, body *apiRequest) (*Response, error) {
	var out *Response
	err := c.breaker.Execute(ctx, func() error {
		resp, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var parsed apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("failed to parse claude response: %w", err)
		}
		out = toResponse(&parsed)
		return nil
	})
	if errors.Is(err, breaker.ErrCircuitOpen) {
		metrics.RecordUpstreamCall("claude", "circuit_open")
		return nil, ErrCircuitOpen
	}
	if err != nil {
		metrics.RecordUpstreamCall("claude", "error")
		logger.ErrorCtx(ctx, "claude request failed: %v", err)
		return nil, err
	}
	metrics.RecordUpstreamCall("claude", "ok")
	return out, nil
}

// doRequest posts body and returns the response on 2xx. The caller closes the body.
func (c *Client) doRequest(ctx context.Context, body *apiRequest) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}
	return resp, nil
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Type: "api_error", Message: strings.TrimSpace(string(raw))}

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		apiErr.Type = body.Error.Type
		apiErr.Message = body.Error.Message
	}
	return apiErr
}

func toResponse(r *apiResponse) *Response {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" || block.Type == "" {
			b.WriteString(block.Text)
		}
	}
	role := r.Role
	if role == "" {
		role = RoleAssistant
	}
	return &Response{
		Content:    b.String(),
		Model:      r.Model,
		Role:       role,
		StopReason: r.StopReason,
		Usage:      r.Usage,
	}
}
