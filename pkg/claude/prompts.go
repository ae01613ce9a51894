package claude

import (
	"context"
	"fmt"
	"strings"
)

// Code analysis tasks
const (
	TaskAnalyze = "analyze"
	TaskReview  = "review"
	TaskImprove = "improve"
	TaskDebug   = "debug"
)

var codeTaskPrompts = map[string]string{
	TaskAnalyze: "Please analyze the following %s code and provide insights on its structure, logic, and potential improvements:",
	TaskReview:  "Please review the following %s code for bugs, security issues, and code quality:",
	TaskImprove: "Please suggest improvements for the following %s code, focusing on performance, readability, and maintainability:",
	TaskDebug:   "Please help debug the following %s code and identify potential issues:",
}

// VibeSystemPrompt is the system prompt for empathetic coding assistance
const VibeSystemPrompt = `You are a thoughtful, empathetic programming companion with deep technical expertise.
You understand that coding is both an art and a science, and you approach each request with:
- Empathy: Understanding the developer's needs and frustrations
- Reassurance: Providing confidence and encouragement
- Kindness: Being patient and supportive in your explanations
- Understanding: Grasping the broader context and goals
- Appreciation: Recognizing the complexity and creativity in programming
- Deep-dive modeling: Providing thorough, well-reasoned solutions
- Strong reasoning: Explaining the "why" behind every recommendation

You create code that is not just functional, but elegant, maintainable, and thoughtfully designed.
You explain your reasoning clearly and offer alternatives when appropriate.`

// CodeAnalysisRequest builds the completion request for a code analysis task.
// Unknown tasks fall back to analyze.
func CodeAnalysisRequest(code, language, task string) (CompletionRequest, error) {
	if strings.TrimSpace(code) == "" {
		return CompletionRequest{}, fmt.Errorf("%w: code must not be empty", ErrInvalidRequest)
	}
	if language == "" {
		language = "python"
	}
	tmpl, ok := codeTaskPrompts[task]
	if !ok {
		tmpl = codeTaskPrompts[TaskAnalyze]
	}

	return CompletionRequest{
		SystemPrompt: fmt.Sprintf("You are an expert %s developer with deep knowledge of best practices, "+
			"design patterns, and code optimization. You provide thoughtful, detailed analysis with practical "+
			"suggestions for improvement.", language),
		Prompt: fmt.Sprintf(tmpl, language) + fmt.Sprintf("\n\n```%s\n%s\n```", language, code),
	}, nil
}

// VibeCodeRequest builds the completion request for empathetic code generation
func VibeCodeRequest(request string, projectContext map[string]interface{}) CompletionRequest {
	return CompletionRequest{
		Prompt:       request,
		SystemPrompt: VibeSystemPrompt,
		Context:      projectContext,
	}
}

// AnalyzeCode runs a code analysis task
func (c *Client) AnalyzeCode(ctx context.Context, code, language, task string) (*Response, error) {
	req, err := CodeAnalysisRequest(code, language, task)
	if err != nil {
		return nil, err
	}
	return c.Complete(ctx, req)
}

// VibeCode generates code with the vibe coding system prompt
func (c *Client) VibeCode(ctx context.Context, request string, projectContext map[string]interface{}) (*Response, error) {
	return c.Complete(ctx, VibeCodeRequest(request, projectContext))
}
