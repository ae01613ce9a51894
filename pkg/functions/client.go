// Package functions invokes remote workloads hosted on Azure Functions.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hybridmcp/pkg/breaker"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
)

const (
	defaultBaseURL = "https://{app}.azurewebsites.net"
	appPlaceholder = "{app}"
	keyHeader      = "x-functions-key"

	// consumption plan pricing
	executionPrice  = 0.0000002
	gbSecondPrice   = 0.000016
	minMemoryGB     = 0.128
	maxResponseBody = 8 << 20
)

var (
	// ErrDisabled is returned when remote execution is not configured
	ErrDisabled = errors.New("remote functions disabled")
	// ErrCircuitOpen is returned while the functions circuit breaker is open
	ErrCircuitOpen = errors.New("remote functions circuit breaker is open")
	// ErrUnknownApp is returned for a module category with no function app
	ErrUnknownApp = errors.New("unknown function app")
)

// FunctionRequest a single function invocation
type FunctionRequest struct {
	App     string            `json:"app"`
	Name    string            `json:"name"`
	Payload interface{}       `json:"payload"`
	Headers map[string]string `json:"headers,omitempty"`
	Timeout time.Duration     `json:"timeout,omitempty"`
}

// FunctionResponse result of an invocation
type FunctionResponse struct {
	Success       bool            `json:"success"`
	StatusCode    int             `json:"status_code"`
	Data          json.RawMessage `json:"data,omitempty"`
	ExecutionTime time.Duration   `json:"execution_time"`
	CostEstimate  float64         `json:"cost_estimate"`
	Error         string          `json:"error,omitempty"`
}

// InvocationError a function answered with a non-2xx status
type InvocationError struct {
	StatusCode int
	Message    string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("function returned status %d: %s", e.StatusCode, e.Message)
}

// Client Azure Functions HTTP client
type Client struct {
	enabled     bool
	baseURL     string
	functionKey string
	timeout     time.Duration
	apps        map[string]string
	httpClient  *http.Client
	breaker     *breaker.CircuitBreaker
}

// NewClient creates a functions client
func NewClient(cfg config.FunctionsConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	apps := make(map[string]string, len(cfg.Apps))
	for k, v := range cfg.Apps {
		apps[k] = v
	}

	return &Client{
		enabled:     cfg.Enabled,
		baseURL:     baseURL,
		functionKey: cfg.FunctionKey,
		timeout:     timeout,
		apps:        apps,
		// per-request timeouts come from the context
		httpClient: &http.Client{},
		breaker:    breaker.New("functions", breaker.DefaultSettings(), countsAgainstBreaker),
	}
}

// Enabled reports whether remote execution is configured
func (c *Client) Enabled() bool {
	return c.enabled
}

// AppFor returns the function app serving a module category
func (c *Client) AppFor(category string) (string, error) {
	app, ok := c.apps[category]
	if !ok || app == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownApp, category)
	}
	return app, nil
}

// Apps returns a copy of the category to function app mapping
func (c *Client) Apps() map[string]string {
	out := make(map[string]string, len(c.apps))
	for k, v := range c.apps {
		out[k] = v
	}
	return out
}

// URL returns the invocation URL of a function
func (c *Client) URL(app, name string) string {
	base := strings.ReplaceAll(c.baseURL, appPlaceholder, app)
	return base + "/api/" + strings.TrimLeft(name, "/")
}

func countsAgainstBreaker(err error) bool {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.StatusCode == http.StatusTooManyRequests || invErr.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Invoke posts the payload to a function. A non-2xx answer returns both the
// response and an *InvocationError.
func (c *Client) Invoke(ctx context.Context, req FunctionRequest) (*FunctionResponse, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	if req.App == "" || req.Name == "" {
		return nil, fmt.Errorf("function app and name are required")
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal function payload: %w", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out *FunctionResponse
	start := time.Now()
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.post(ctx, c.URL(req.App, req.Name), body, req.Headers)
		if err != nil {
			return err
		}
		out = resp
		out.ExecutionTime = time.Since(start)
		out.CostEstimate = EstimateInvocationCost(out.ExecutionTime, len(body))
		if !out.Success {
			return &InvocationError{StatusCode: out.StatusCode, Message: out.Error}
		}
		return nil
	})

	switch {
	case errors.Is(err, breaker.ErrCircuitOpen):
		metrics.RecordUpstreamCall("functions", "circuit_open")
		return nil, ErrCircuitOpen
	case err != nil:
		metrics.RecordUpstreamCall("functions", "error")
		logger.ErrorCtx(ctx, "function %s/%s failed: %v", req.App, req.Name, err)
		return out, err
	}

	metrics.RecordUpstreamCall("functions", "ok")
	logger.InfoCtx(ctx, "function %s/%s completed in %s, estimated cost $%.8f",
		req.App, req.Name, out.ExecutionTime, out.CostEstimate)
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte, headers map[string]string) (*FunctionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.functionKey != "" {
		httpReq.Header.Set(keyHeader, c.functionKey)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call function: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read function response: %w", err)
	}

	out := &FunctionResponse{
		Success:    resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Data:       toJSON(raw),
	}
	out.Error = errorField(out.Data)
	if !out.Success && out.Error == "" {
		out.Error = http.StatusText(resp.StatusCode)
	}
	return out, nil
}

// toJSON keeps valid JSON bodies and wraps anything else as a JSON string
func toJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

func errorField(data json.RawMessage) string {
	var body struct {
		Error interface{} `json:"error"`
	}
	if len(data) == 0 || data[0] != '{' || json.Unmarshal(data, &body) != nil || body.Error == nil {
		return ""
	}
	if s, ok := body.Error.(string); ok {
		return s
	}
	return fmt.Sprint(body.Error)
}

// EstimateInvocationCost estimates consumption plan cost from the execution
// time and the payload size, billing at least 128MB of memory.
func EstimateInvocationCost(executionTime time.Duration, payloadBytes int) float64 {
	memoryGB := float64(payloadBytes) / 1024 / 1024 / 1024
	if memoryGB < minMemoryGB {
		memoryGB = minMemoryGB
	}
	return executionPrice + memoryGB*executionTime.Seconds()*gbSecondPrice
}
