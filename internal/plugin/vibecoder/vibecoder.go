// Package vibecoder provides empathetic coding assistance tuned by mood,
// focus and experience level.
package vibecoder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hybridmcp/internal/plugin"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	Name = "vibe_coder"

	maxSuggestions = 5
	maxResources   = 3
)

// Request vibe coding request
type Request struct {
	Request         string                 `json:"request" binding:"required"`
	Context         map[string]interface{} `json:"context,omitempty"`
	Mood            string                 `json:"mood,omitempty"`             // supportive, encouraging, analytical, creative
	Focus           string                 `json:"focus,omitempty"`            // general, performance, readability, architecture
	ExperienceLevel string                 `json:"experience_level,omitempty"` // beginner, intermediate, advanced
}

func (r *Request) applyDefaults() {
	if r.Mood == "" {
		r.Mood = "supportive"
	}
	if r.Focus == "" {
		r.Focus = "general"
	}
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = "intermediate"
	}
}

// Response structured vibe coding answer
type Response struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Resources   []string `json:"resources"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

// Mode selects the kind of help
type Mode string

const (
	ModeCode    Mode = "code"
	ModeReview  Mode = "review"
	ModeExplain Mode = "explain"
)

// Plugin vibe coder plugin
type Plugin struct {
	deps plugin.Deps
}

// New creates the plugin
func New(deps plugin.Deps) *Plugin {
	return &Plugin{deps: deps}
}

// Metadata implements plugin.Plugin
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "1.0.0",
		Description: "Empathetic programming companion with deep technical insights",
		Author:      "hybridmcp",
		Requires:    []string{"claude"},
		Enabled:     true,
	}
}

// Initialize implements plugin.Plugin
func (p *Plugin) Initialize(ctx context.Context) error {
	if p.deps.Exec == nil || p.deps.Client == nil {
		return fmt.Errorf("vibe coder requires an executor and a model client")
	}
	return nil
}

// Shutdown implements plugin.Plugin
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// RegisterRoutes implements plugin.Plugin
func (p *Plugin) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/vibe")
	g.POST("/code", p.handle(ModeCode))
	g.POST("/review", p.handle(ModeReview))
	g.POST("/explain", p.handle(ModeExplain))
}

func (p *Plugin) handle(m Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		resp, err := p.Generate(c.Request.Context(), m, req)
		if err != nil {
			plugin.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Generate runs a vibe request in the given mode
func (p *Plugin) Generate(ctx context.Context, m Mode, req Request) (*Response, error) {
	req.applyDefaults()
	task := hybrid.TaskDescriptor{
		Name:              "vibe_" + string(m),
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: 60 * time.Second,
		EstimatedCPU:      0.2,
		EstimatedMemory:   0.1,
		FunctionName:      "ideation/vibe_" + string(m),
	}

	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*Response, error) {
		completion := claude.CompletionRequest{
			Prompt:       prompt(m, req.Request),
			SystemPrompt: systemPrompt(m, req),
			Context:      req.Context,
		}
		resp, err := p.deps.Client.Complete(ctx, completion)
		if err != nil {
			return nil, err
		}
		logger.InfoCtx(ctx, "vibe %s answered with %d characters", m, len(resp.Content))
		return structure(resp.Content, req), nil
	})
}

func prompt(m Mode, request string) string {
	switch m {
	case ModeReview:
		return "Please review this code:\n" + request
	case ModeExplain:
		return "Please explain this code or concept:\n" + request
	default:
		return request
	}
}

// structure turns the raw answer into suggestions, resources and a confidence
func structure(content string, req Request) *Response {
	var suggestions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if plugin.IsListItem(line) {
			suggestions = append(suggestions, line)
		}
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	confidence := float64(len(content)) / 1000
	if confidence < 0.6 {
		confidence = 0.6
	}
	if confidence > 0.9 {
		confidence = 0.9
	}

	reasoning := "Based on best practices and the specific context provided."
	lower := strings.ToLower(content)
	if strings.Contains(lower, "because") || strings.Contains(lower, "reason") {
		reasoning = "Detailed reasoning provided in the response above."
	}

	return &Response{
		Response:    content,
		Suggestions: suggestions,
		Resources:   resources(req),
		Confidence:  confidence,
		Reasoning:   reasoning,
	}
}

func resources(req Request) []string {
	var out []string
	switch req.ExperienceLevel {
	case "beginner":
		out = []string{"A Tour of Go", "Go by Example", "Effective Go"}
	case "intermediate":
		out = []string{"Clean Code by Robert Martin", "Effective Go", "Go Proverbs"}
	default:
		out = []string{"Designing Data-Intensive Applications", "Concurrency in Go", "High Performance Go Workshop"}
	}

	switch req.Focus {
	case "performance":
		out = append([]string{"Go Performance Tuning Guide"}, out...)
	case "architecture":
		out = append([]string{"System Design Primer"}, out...)
	case "readability":
		out = append([]string{"Go Code Review Comments"}, out...)
	}
	if len(out) > maxResources {
		out = out[:maxResources]
	}
	return out
}
