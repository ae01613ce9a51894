package claude

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for requests rejected before any API call
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCircuitOpen is returned while the API circuit breaker is open
	ErrCircuitOpen = errors.New("claude api circuit breaker is open")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxTokensLimit = 200000
)

// Message conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest single prompt completion
type CompletionRequest struct {
	Prompt       string                 `json:"prompt"`
	SystemPrompt string                 `json:"system_prompt,omitempty"`
	Context      map[string]interface{} `json:"context,omitempty"`
	MaxTokens    int                    `json:"max_tokens,omitempty"`
	Temperature  *float64               `json:"temperature,omitempty"`
}

// ChatRequest multi-turn chat
type ChatRequest struct {
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
}

// Usage token accounting
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response model reply
type Response struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	Role       string `json:"role"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// APIError error returned by the Messages API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("claude api error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
}

// Retryable reports whether the failure is transient
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// wire types

type apiRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiResponse struct {
	Model      string            `json:"model"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
	Usage      Usage             `json:"usage"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Message *apiResponse `json:"message"`
	Usage   *Usage       `json:"usage"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
