package service

import (
	"context"
	"time"

	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
)

// CompletionClient is the language model API used by the services
type CompletionClient interface {
	Model() string
	Complete(ctx context.Context, req claude.CompletionRequest) (*claude.Response, error)
	Chat(ctx context.Context, req claude.ChatRequest) (*claude.Response, error)
	Stream(ctx context.Context, req claude.CompletionRequest, onDelta claude.DeltaFunc) (*claude.Response, error)
	HealthCheck(ctx context.Context) bool
}

// CompletionResult model reply plus where it was produced
type CompletionResult struct {
	Response  *claude.Response `json:"response"`
	Execution *ExecutionResult `json:"execution"`
}

// CompletionService runs model requests through the execution router
type CompletionService struct {
	exec   *ExecutionService
	client CompletionClient
}

// NewCompletionService creates a completion service
func NewCompletionService(exec *ExecutionService, client CompletionClient) *CompletionService {
	return &CompletionService{exec: exec, client: client}
}

// Client returns the underlying model client
func (s *CompletionService) Client() CompletionClient {
	return s.client
}

// completionTask describes a model call for routing. Model calls are light
// locally; the duration estimate grows with the token budget.
func completionTask(name, function string, maxTokens int) hybrid.TaskDescriptor {
	estimate := 30 * time.Second
	if maxTokens > 4000 {
		estimate = time.Duration(maxTokens/100) * time.Second
	}
	return hybrid.TaskDescriptor{
		Name:              name,
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: estimate,
		EstimatedCPU:      0.1,
		EstimatedMemory:   0.1,
		FunctionName:      function,
	}
}

// Complete routes a single prompt completion
func (s *CompletionService) Complete(ctx context.Context, req claude.CompletionRequest) (*CompletionResult, error) {
	task := completionTask("complete", "orchestration/complete", req.MaxTokens)
	return s.run(ctx, task, req, func(ctx context.Context) (*claude.Response, error) {
		return s.client.Complete(ctx, req)
	})
}

// Chat routes a multi-turn chat
func (s *CompletionService) Chat(ctx context.Context, req claude.ChatRequest) (*CompletionResult, error) {
	task := completionTask("chat", "orchestration/chat", req.MaxTokens)
	return s.run(ctx, task, req, func(ctx context.Context) (*claude.Response, error) {
		return s.client.Chat(ctx, req)
	})
}

// AnalyzeCode routes a code analysis task
func (s *CompletionService) AnalyzeCode(ctx context.Context, code, language, analysis string) (*CompletionResult, error) {
	req, err := claude.CodeAnalysisRequest(code, language, analysis)
	if err != nil {
		return nil, err
	}
	task := completionTask("analyze_code_"+analysis, "orchestration/analyze_code", req.MaxTokens)
	return s.run(ctx, task, req, func(ctx context.Context) (*claude.Response, error) {
		return s.client.Complete(ctx, req)
	})
}

// VibeCode routes empathetic code generation
func (s *CompletionService) VibeCode(ctx context.Context, request string, projectContext map[string]interface{}) (*CompletionResult, error) {
	req := claude.VibeCodeRequest(request, projectContext)
	task := completionTask("vibe_code", "orchestration/vibe_code", req.MaxTokens)
	return s.run(ctx, task, req, func(ctx context.Context) (*claude.Response, error) {
		return s.client.Complete(ctx, req)
	})
}

// CompleteWith routes a completion under a caller supplied task descriptor.
// Plugins use it to describe their own workloads.
func (s *CompletionService) CompleteWith(ctx context.Context, task hybrid.TaskDescriptor, req claude.CompletionRequest) (*CompletionResult, error) {
	return s.run(ctx, task, req, func(ctx context.Context) (*claude.Response, error) {
		return s.client.Complete(ctx, req)
	})
}

// Stream streams a completion. Streaming always runs locally.
func (s *CompletionService) Stream(ctx context.Context, req claude.CompletionRequest, onDelta claude.DeltaFunc) (*claude.Response, error) {
	return s.client.Stream(ctx, req, onDelta)
}

func (s *CompletionService) run(ctx context.Context, task hybrid.TaskDescriptor, payload interface{},
	local func(ctx context.Context) (*claude.Response, error)) (*CompletionResult, error) {
	exec, err := s.exec.Execute(ctx, task, func(ctx context.Context) (interface{}, error) {
		return local(ctx)
	}, payload)
	if err != nil {
		return &CompletionResult{Execution: exec}, err
	}

	var resp claude.Response
	if err := exec.Decode(&resp); err != nil {
		return &CompletionResult{Execution: exec}, err
	}
	return &CompletionResult{Response: &resp, Execution: exec}, nil
}
