// Package perspective reframes questions and challenges assumptions from
// several angles.
package perspective

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hybridmcp/internal/plugin"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	Name = "perspective_shift"

	maxPerspectives = 4
	maxQuestions    = 4
	shiftDuration   = 240 * time.Second
)

// Request perspective shift request
type Request struct {
	OriginalQuestion string                 `json:"original_question" binding:"required"`
	ShiftType        ShiftType              `json:"shift_type"`
	Context          map[string]interface{} `json:"context,omitempty"`
	Intensity        string                 `json:"intensity,omitempty"` // gentle, moderate, strong
	FocusArea        string                 `json:"focus_area,omitempty"`
	TargetAudience   string                 `json:"target_audience,omitempty"`
	DesiredOutcome   string                 `json:"desired_outcome,omitempty"` // insight, solution, creativity, clarity
}

func (r *Request) applyDefaults() {
	if r.ShiftType == "" {
		r.ShiftType = ShiftReframe
	}
	if r.Intensity == "" {
		r.Intensity = "moderate"
	}
	if r.DesiredOutcome == "" {
		r.DesiredOutcome = "insight"
	}
}

// Response perspective shift result
type Response struct {
	OriginalQuestion    string    `json:"original_question"`
	ShiftType           ShiftType `json:"shift_type"`
	ShiftedPerspectives []string  `json:"shifted_perspectives"`
	ReframedQuestions   []string  `json:"reframed_questions"`
	Insights            []string  `json:"insights"`
	Reasoning           string    `json:"reasoning"`
	EmpatheticGuidance  string    `json:"empathetic_guidance"`
	NextSteps           []string  `json:"next_steps"`
	ConfidenceLevel     float64   `json:"confidence_level"`
}

// ShiftTypeInfo describes one shift type
type ShiftTypeInfo struct {
	Type        ShiftType `json:"type"`
	Description string    `json:"description"`
}

// Plugin perspective shift plugin
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
		Description: "Empathetic perspective shifting and reframing with supportive reasoning",
		Author:      "hybridmcp",
		Requires:    []string{"claude"},
		Enabled:     true,
	}
}

// Initialize implements plugin.Plugin
func (p *Plugin) Initialize(ctx context.Context) error {
	if p.deps.Exec == nil || p.deps.Client == nil {
		return fmt.Errorf("perspective shift requires an executor and a model client")
	}
	return nil
}

// Shutdown implements plugin.Plugin
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// RegisterRoutes implements plugin.Plugin
func (p *Plugin) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/perspective-shift")
	g.POST("/shift", p.handleShift)
	g.POST("/multi-shift", p.handleMultiShift)
	g.GET("/shift-types", p.handleShiftTypes)
}

func (p *Plugin) handleShift(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.Shift(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleMultiShift(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.MultiShift(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleShiftTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shift_types": ShiftTypes()})
}

// Shift runs one perspective shift through the router
func (p *Plugin) Shift(ctx context.Context, req Request) (*Response, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	task := hybrid.TaskDescriptor{
		Name:              "perspective_shift_" + string(req.ShiftType),
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: shiftDuration,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/perspective_shift",
	}
	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*Response, error) {
		return p.generate(ctx, req)
	})
}

// multiShiftTypes shift types covered by MultiShift
var multiShiftTypes = []ShiftType{ShiftReframe, ShiftChallenge, ShiftAlternative, ShiftStakeholder}

// MultiShift runs the reframe, challenge, alternative and stakeholder
// shifts as a single routed task
func (p *Plugin) MultiShift(ctx context.Context, req Request) ([]*Response, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	task := hybrid.TaskDescriptor{
		Name:              "perspective_multi_shift",
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: time.Duration(len(multiShiftTypes)) * shiftDuration,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/perspective_multi_shift",
	}
	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) ([]*Response, error) {
		out := make([]*Response, 0, len(multiShiftTypes))
		for _, st := range multiShiftTypes {
			r := req
			r.ShiftType = st
			resp, err := p.generate(ctx, r)
			if err != nil {
				return nil, fmt.Errorf("%s shift: %w", st, err)
			}
			out = append(out, resp)
		}
		return out, nil
	})
}

func validate(req *Request) error {
	if strings.TrimSpace(req.OriginalQuestion) == "" {
		return fmt.Errorf("%w: original_question is required", service.ErrInvalidInput)
	}
	req.applyDefaults()
	if _, ok := techniques[req.ShiftType]; !ok {
		return fmt.Errorf("%w: unknown shift type %q", service.ErrInvalidInput, req.ShiftType)
	}
	return nil
}

func (p *Plugin) generate(ctx context.Context, req Request) (*Response, error) {
	tech := techniques[req.ShiftType]

	temperature := tech.temperature
	resp, err := p.deps.Client.Complete(ctx, claude.CompletionRequest{
		Prompt:       tech.prompt(req),
		SystemPrompt: tech.systemPrompt(req.Intensity),
		MaxTokens:    1000,
		Temperature:  &temperature,
	})
	if err != nil {
		return nil, err
	}
	shifts := parsePerspectives(resp.Content)

	questions, err := p.reframedQuestions(ctx, req, shifts)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "perspective %s produced %d shifts and %d questions", req.ShiftType, len(shifts), len(questions))

	return &Response{
		OriginalQuestion:    req.OriginalQuestion,
		ShiftType:           req.ShiftType,
		ShiftedPerspectives: shifts,
		ReframedQuestions:   questions,
		Insights:            insights(req.ShiftType),
		Reasoning:           reasoning(req),
		EmpatheticGuidance:  guidance(req.Intensity),
		NextSteps:           nextSteps(req.ShiftType),
		ConfidenceLevel:     confidence(req, len(shifts)),
	}, nil
}

func (p *Plugin) reframedQuestions(ctx context.Context, req Request, shifts []string) ([]string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on these perspective shifts, generate 3-4 reframed questions:\n\nOriginal question: %q\n\nPerspective shifts:\n", req.OriginalQuestion)
	for _, s := range shifts {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString(`
Create questions that:
1. Incorporate insights from the shifts
2. Are actionable and specific
3. Open new paths for exploration
4. Maintain empathetic tone

Format as clear, direct questions.`)

	temperature := 0.6
	resp, err := p.deps.Client.Complete(ctx, claude.CompletionRequest{
		Prompt:       b.String(),
		SystemPrompt: basePrompt,
		MaxTokens:    600,
		Temperature:  &temperature,
	})
	if err != nil {
		return nil, err
	}
	return parseQuestions(resp.Content), nil
}

func parsePerspectives(content string) []string {
	items := plugin.ListItems(content)
	if len(items) > maxPerspectives {
		items = items[:maxPerspectives]
	}
	return items
}

func parseQuestions(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "?") {
			continue
		}
		if q := plugin.CleanItem(line); q != "" {
			out = append(out, q)
		}
		if len(out) == maxQuestions {
			break
		}
	}
	return out
}

func insights(st ShiftType) []string {
	var out []string
	switch st {
	case ShiftReframe:
		out = append(out, "Reframing reveals hidden assumptions and opens new solution paths")
	case ShiftChallenge:
		out = append(out, "Challenging assumptions uncovers limiting beliefs and expands possibilities")
	case ShiftStakeholder:
		out = append(out, "Different stakeholders bring valuable perspectives that enrich understanding")
	case ShiftTemporal:
		out = append(out, "Time perspective reveals how urgency and importance shift over time")
	}
	out = append(out,
		"Multiple perspectives create a richer understanding of complex issues",
		"Shifting perspective is a skill that improves with practice and openness")
	return out[:min(3, len(out))]
}

func reasoning(req Request) string {
	parts := []string{fmt.Sprintf("The %s approach was chosen to help you see %q from a different angle.", req.ShiftType, req.OriginalQuestion)}
	switch req.Intensity {
	case "gentle":
		parts = append(parts, "The gentle approach maintains your comfort zone while introducing new viewpoints.")
	case "strong":
		parts = append(parts, "The strong approach challenges assumptions more directly to break through limiting thinking.")
	default:
		parts = append(parts, "The moderate approach balances challenge with support to encourage growth.")
	}
	parts = append(parts, "Each perspective shift expands your thinking while staying empathetic and supportive.")
	return strings.Join(parts, " ")
}

func guidance(intensity string) string {
	opening := "You're thoughtfully expanding your perspective - wonderful work!"
	switch intensity {
	case "gentle":
		opening = "You're exploring new perspectives with openness and curiosity."
	case "strong":
		opening = "You're courageously challenging your assumptions - that takes strength!"
	}
	return opening + " Remember, there's no single 'right' perspective." +
		" Each viewpoint offers valuable insights that can inform your thinking." +
		" Trust your intuition about which perspectives resonate and deserve deeper exploration."
}

// nextSteps returns three steps, the last one specific to the shift type when it has one
func nextSteps(st ShiftType) []string {
	steps := []string{
		"Choose 1-2 perspectives that resonate most strongly with you",
		"Explore the implications of your chosen perspectives more deeply",
	}
	switch st {
	case ShiftStakeholder:
		return append(steps, "Reach out to actual stakeholders to validate these perspectives")
	case ShiftChallenge:
		return append(steps, "Test your assumptions by seeking disconfirming evidence")
	case ShiftTemporal:
		return append(steps, "Create timeline-based action plans with different time horizons")
	default:
		return append(steps, "Consider how these new viewpoints might change your approach")
	}
}

func confidence(req Request, shifts int) float64 {
	c := 0.7
	if shifts >= 3 {
		c += 0.1
	}
	switch req.Intensity {
	case "gentle":
		c += 0.05
	case "strong":
		c += 0.1
	}
	if len(req.Context) > 0 {
		c += 0.05
	}
	return min(0.95, c)
}
