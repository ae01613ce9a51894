// Package plugintest provides fakes for plugin tests.
package plugintest

import (
	"context"
	"encoding/json"
	"sync"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
)

// Executor runs every task locally and records the descriptors
type Executor struct {
	mu    sync.Mutex
	Tasks []hybrid.TaskDescriptor
}

// Execute implements plugin.Executor
func (e *Executor) Execute(ctx context.Context, task hybrid.TaskDescriptor, local service.LocalFunc, _ interface{}) (*service.ExecutionResult, error) {
	e.mu.Lock()
	e.Tasks = append(e.Tasks, task)
	e.mu.Unlock()

	v, err := local(ctx)
	if err != nil {
		return &service.ExecutionResult{Location: hybrid.TargetLocal}, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &service.ExecutionResult{Location: hybrid.TargetLocal, Output: data}, nil
}

// Client answers completions from a fixed script. The last reply repeats.
type Client struct {
	mu       sync.Mutex
	Replies  []string
	Err      error
	Requests []claude.CompletionRequest
}

// NewClient creates a scripted client
func NewClient(replies ...string) *Client {
	return &Client{Replies: replies}
}

// Last returns the most recent request
func (c *Client) Last() claude.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Requests) == 0 {
		return claude.CompletionRequest{}
	}
	return c.Requests[len(c.Requests)-1]
}

// Model implements service.CompletionClient
func (c *Client) Model() string { return "claude-test" }

// Complete implements service.CompletionClient
func (c *Client) Complete(_ context.Context, req claude.CompletionRequest) (*claude.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if c.Err != nil {
		return nil, c.Err
	}
	reply := ""
	if n := len(c.Requests); len(c.Replies) > 0 {
		if n > len(c.Replies) {
			n = len(c.Replies)
		}
		reply = c.Replies[n-1]
	}
	return &claude.Response{Content: reply, Model: "claude-test", Role: claude.RoleAssistant}, nil
}

// Chat implements service.CompletionClient
func (c *Client) Chat(ctx context.Context, req claude.ChatRequest) (*claude.Response, error) {
	last := ""
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].Content
	}
	return c.Complete(ctx, claude.CompletionRequest{Prompt: last, SystemPrompt: req.SystemPrompt})
}

// Stream implements service.CompletionClient
func (c *Client) Stream(ctx context.Context, req claude.CompletionRequest, onDelta claude.DeltaFunc) (*claude.Response, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := onDelta(resp.Content); err != nil {
		return resp, err
	}
	return resp, nil
}

// HealthCheck implements service.CompletionClient
func (c *Client) HealthCheck(context.Context) bool { return c.Err == nil }
