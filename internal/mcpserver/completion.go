package mcpserver

import (
	"context"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"

	"github.com/mark3labs/mcp-go/mcp"
)

// CompleteTool handles the complete MCP tool.
type CompleteTool struct {
	completion *service.CompletionService
}

// NewCompleteTool creates a CompleteTool.
func NewCompleteTool(completion *service.CompletionService) *CompleteTool {
	return &CompleteTool{completion: completion}
}

// Definition returns the MCP tool definition for complete.
func (t *CompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("complete",
		mcp.WithDescription("Complete a prompt with Claude. The call runs locally or on Azure Functions depending on current load."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The prompt to complete"),
		),
		mcp.WithString("system_prompt",
			mcp.Description("Optional system prompt"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Maximum tokens to generate (default from server config)"),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Sampling temperature between 0 and 1"),
		),
	)
}

// Handle processes the complete tool call.
func (t *CompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := req.GetString("prompt", "")
	if prompt == "" {
		return mcp.NewToolResultError("'prompt' is required"), nil
	}

	in := claude.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: req.GetString("system_prompt", ""),
		Temperature:  floatArg(req, "temperature"),
	}
	if v := floatArg(req, "max_tokens"); v != nil {
		in.MaxTokens = int(*v)
	}

	res, err := t.completion.Complete(ctx, in)
	if err != nil {
		return toolError("completion", err), nil
	}
	return completionResult(res), nil
}

// AnalyzeCodeTool handles the analyze_code MCP tool.
type AnalyzeCodeTool struct {
	completion *service.CompletionService
}

// NewAnalyzeCodeTool creates an AnalyzeCodeTool.
func NewAnalyzeCodeTool(completion *service.CompletionService) *AnalyzeCodeTool {
	return &AnalyzeCodeTool{completion: completion}
}

// Definition returns the MCP tool definition for analyze_code.
func (t *AnalyzeCodeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_code",
		mcp.WithDescription("Analyze, review, improve or debug a code snippet."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("The code to analyze"),
		),
		mcp.WithString("language",
			mcp.Description("Programming language (default: python)"),
		),
		mcp.WithString("task",
			mcp.Description("Kind of analysis (default: analyze)"),
			mcp.Enum(claude.TaskAnalyze, claude.TaskReview, claude.TaskImprove, claude.TaskDebug),
		),
	)
}

// Handle processes the analyze_code tool call.
func (t *AnalyzeCodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := req.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("'code' is required"), nil
	}

	res, err := t.completion.AnalyzeCode(ctx, code, req.GetString("language", ""), req.GetString("task", claude.TaskAnalyze))
	if err != nil {
		return toolError("code analysis", err), nil
	}
	return completionResult(res), nil
}

// VibeCodeTool handles the vibe_code MCP tool.
type VibeCodeTool struct {
	completion *service.CompletionService
}

// NewVibeCodeTool creates a VibeCodeTool.
func NewVibeCodeTool(completion *service.CompletionService) *VibeCodeTool {
	return &VibeCodeTool{completion: completion}
}

// Definition returns the MCP tool definition for vibe_code.
func (t *VibeCodeTool) Definition() mcp.Tool {
	return mcp.NewTool("vibe_code",
		mcp.WithDescription("Generate code with an empathetic, explanatory programming companion."),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("What to build or change"),
		),
		mcp.WithObject("context",
			mcp.Description("Optional project context (language, framework, constraints)"),
		),
	)
}

// Handle processes the vibe_code tool call.
func (t *VibeCodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	request := req.GetString("request", "")
	if request == "" {
		return mcp.NewToolResultError("'request' is required"), nil
	}

	res, err := t.completion.VibeCode(ctx, request, objectArg(req, "context"))
	if err != nil {
		return toolError("vibe coding", err), nil
	}
	return completionResult(res), nil
}
