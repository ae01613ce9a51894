// Package creativity runs divergent thinking exercises that break creative
// blocks: technique-driven idea surges, rapid-fire rounds and block analysis.
package creativity

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
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
	Name = "creativity_surge"

	defaultSurgeMinutes = 10
	defaultRapidCount   = 20
	blockDuration       = 180 * time.Second
	rapidDuration       = 5 * time.Minute
)

// SurgeRequest creativity surge request
type SurgeRequest struct {
	Challenge       string                 `json:"challenge" binding:"required"`
	Technique       Technique              `json:"technique"`
	Intensity       string                 `json:"intensity,omitempty"` // low, medium, high, extreme
	DurationMinutes int                    `json:"duration_minutes,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	CurrentMood     string                 `json:"current_mood,omitempty"`
	EnergyLevel     string                 `json:"energy_level,omitempty"`
	PreferredStyle  string                 `json:"preferred_style,omitempty"` // playful, analytical, intuitive, balanced
}

func (r *SurgeRequest) applyDefaults() {
	if r.Technique == "" {
		r.Technique = DivergentThinking
	}
	if r.Intensity == "" {
		r.Intensity = "medium"
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = defaultSurgeMinutes
	}
	if r.CurrentMood == "" {
		r.CurrentMood = "neutral"
	}
	if r.EnergyLevel == "" {
		r.EnergyLevel = "medium"
	}
	if r.PreferredStyle == "" {
		r.PreferredStyle = "balanced"
	}
}

// SurgeResponse ideas and coaching from one surge
type SurgeResponse struct {
	Challenge           string    `json:"challenge"`
	Technique           Technique `json:"technique"`
	Ideas               []Idea    `json:"ideas"`
	BreakthroughMoments []string  `json:"breakthrough_moments"`
	PatternsIdentified  []string  `json:"patterns_identified"`
	EnergyBoost         string    `json:"energy_boost"`
	Encouragement       string    `json:"encouragement"`
	NextTechniques      []string  `json:"next_techniques"`
	CreativeMomentum    float64   `json:"creative_momentum"`
}

// BlockRequest creative block description
type BlockRequest struct {
	Challenge    string `json:"challenge" binding:"required"`
	CurrentState string `json:"current_state" binding:"required"`
}

// RapidFireRequest rapid-fire round request
type RapidFireRequest struct {
	Challenge string `json:"challenge" binding:"required"`
	Count     int    `json:"count,omitempty"`
}

// Inspiration warm-up material
type Inspiration struct {
	RandomWords    []string `json:"random_words"`
	RandomObjects  []string `json:"random_objects"`
	WarmUps        []string `json:"warm_up_exercises"`
	CreativeMantra []string `json:"creative_mantras"`
}

// Plugin creativity surge plugin
type Plugin struct {
	deps plugin.Deps
	// perm returns a random permutation of [0,n)
	perm func(n int) []int
}

// New creates the plugin
func New(deps plugin.Deps) *Plugin {
	return &Plugin{deps: deps, perm: rand.Perm}
}

// Metadata implements plugin.Plugin
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "1.0.0",
		Description: "Divergent thinking module to break creative gridlock with empathy",
		Author:      "hybridmcp",
		Requires:    []string{"claude"},
		Enabled:     true,
	}
}

// Initialize implements plugin.Plugin
func (p *Plugin) Initialize(ctx context.Context) error {
	if p.deps.Exec == nil || p.deps.Client == nil {
		return fmt.Errorf("creativity surge requires an executor and a model client")
	}
	return nil
}

// Shutdown implements plugin.Plugin
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// RegisterRoutes implements plugin.Plugin
func (p *Plugin) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/creativity-surge")
	g.POST("/surge", p.handleSurge)
	g.POST("/break-block", p.handleBreakBlock)
	g.POST("/rapid-fire", p.handleRapidFire)
	g.GET("/techniques", p.handleTechniques)
	g.GET("/inspiration", p.handleInspiration)
}

func bind[T any](c *gin.Context) (T, bool) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return req, false
	}
	return req, true
}

func (p *Plugin) handleSurge(c *gin.Context) {
	req, ok := bind[SurgeRequest](c)
	if !ok {
		return
	}
	resp, err := p.Surge(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleBreakBlock(c *gin.Context) {
	req, ok := bind[BlockRequest](c)
	if !ok {
		return
	}
	resp, err := p.BreakBlock(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleRapidFire(c *gin.Context) {
	req, ok := bind[RapidFireRequest](c)
	if !ok {
		return
	}
	resp, err := p.RapidFire(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleTechniques(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"techniques": Techniques()})
}

func (p *Plugin) handleInspiration(c *gin.Context) {
	c.JSON(http.StatusOK, p.Inspiration())
}

// Surge runs one technique through the router
func (p *Plugin) Surge(ctx context.Context, req SurgeRequest) (*SurgeResponse, error) {
	if strings.TrimSpace(req.Challenge) == "" {
		return nil, fmt.Errorf("%w: challenge is required", service.ErrInvalidInput)
	}
	req.applyDefaults()
	if _, ok := techniques[req.Technique]; !ok {
		return nil, fmt.Errorf("%w: unknown creativity technique %q", service.ErrInvalidInput, req.Technique)
	}
	if !slices.Contains(Intensities, req.Intensity) {
		return nil, fmt.Errorf("%w: intensity must be one of %s", service.ErrInvalidInput, strings.Join(Intensities, ", "))
	}
	if _, ok := styleAdditions[req.PreferredStyle]; !ok {
		return nil, fmt.Errorf("%w: unknown preferred style %q", service.ErrInvalidInput, req.PreferredStyle)
	}

	task := hybrid.TaskDescriptor{
		Name:              "creativity_surge_" + string(req.Technique),
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: time.Duration(req.DurationMinutes) * time.Minute,
		EstimatedCPU:      0.4,
		EstimatedMemory:   0.3,
		FunctionName:      "ideation/creativity_surge",
	}
	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*SurgeResponse, error) {
		return p.surge(ctx, req)
	})
}

// RapidFire runs divergent thinking and random stimulation at high
// intensity as one routed task and returns up to Count ideas
func (p *Plugin) RapidFire(ctx context.Context, req RapidFireRequest) (*SurgeResponse, error) {
	if strings.TrimSpace(req.Challenge) == "" {
		return nil, fmt.Errorf("%w: challenge is required", service.ErrInvalidInput)
	}
	if req.Count <= 0 {
		req.Count = defaultRapidCount
	}

	task := hybrid.TaskDescriptor{
		Name:              "creativity_rapid_fire",
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: 2 * rapidDuration,
		EstimatedCPU:      0.4,
		EstimatedMemory:   0.3,
		FunctionName:      "ideation/creativity_rapid_fire",
	}
	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*SurgeResponse, error) {
		round := SurgeRequest{
			Challenge:       req.Challenge,
			Technique:       DivergentThinking,
			Intensity:       "high",
			DurationMinutes: int(rapidDuration / time.Minute),
			PreferredStyle:  "playful",
		}
		round.applyDefaults()
		first, err := p.surge(ctx, round)
		if err != nil {
			return nil, err
		}
		round.Technique = RandomStimulation
		second, err := p.surge(ctx, round)
		if err != nil {
			return nil, err
		}

		ideas := append(slices.Clone(first.Ideas), second.Ideas...)
		if len(ideas) > req.Count {
			ideas = ideas[:req.Count]
		}
		return &SurgeResponse{
			Challenge:           req.Challenge,
			Technique:           DivergentThinking,
			Ideas:               ideas,
			BreakthroughMoments: append(slices.Clone(first.BreakthroughMoments), second.BreakthroughMoments...),
			PatternsIdentified:  first.PatternsIdentified,
			EnergyBoost:         "Rapid-fire session complete! Your creative energy is surging!",
			Encouragement:       "Amazing rapid-fire creativity! You've generated a wealth of ideas in record time.",
			NextTechniques:      []string{string(ConstraintRemoval), string(MetaphorThinking)},
			CreativeMomentum:    0.95,
		}, nil
	})
}

// BreakBlock diagnoses a creative block and suggests strategies
func (p *Plugin) BreakBlock(ctx context.Context, req BlockRequest) (*BlockAnalysis, error) {
	if strings.TrimSpace(req.Challenge) == "" || strings.TrimSpace(req.CurrentState) == "" {
		return nil, fmt.Errorf("%w: challenge and current_state are required", service.ErrInvalidInput)
	}

	task := hybrid.TaskDescriptor{
		Name:              "break_creative_block",
		Priority:          hybrid.PriorityHigh,
		EstimatedDuration: blockDuration,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/break_creative_block",
	}
	return plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*BlockAnalysis, error) {
		prompt := fmt.Sprintf(`Analyze this creative block with empathy and provide breakthrough strategies:

Challenge: %s
Current state: %s

Please analyze:
1. What type of creative block is this?
2. What symptoms are present?
3. What might be the root causes?
4. What breakthrough strategies would help?
5. What empathetic support is needed?

Provide compassionate, actionable guidance to help overcome this block.`, req.Challenge, req.CurrentState)

		temperature := 0.7
		resp, err := p.deps.Client.Complete(ctx, claude.CompletionRequest{
			Prompt:       prompt,
			SystemPrompt: blockPrompt,
			MaxTokens:    1000,
			Temperature:  &temperature,
		})
		if err != nil {
			return nil, err
		}
		analysis := analyzeBlock(resp.Content)
		logger.InfoCtx(ctx, "creative block classified as %s", analysis.BlockType)
		return analysis, nil
	})
}

// Inspiration returns random stimuli with warm-up exercises
func (p *Plugin) Inspiration() Inspiration {
	return Inspiration{
		RandomWords:    p.sample(randomWords, 5),
		RandomObjects:  p.sample(randomObjects, 5),
		WarmUps:        warmUps,
		CreativeMantra: mantras,
	}
}

func (p *Plugin) sample(pool []string, k int) []string {
	idx := p.perm(len(pool))
	out := make([]string, 0, k)
	for _, i := range idx[:min(k, len(idx))] {
		out = append(out, pool[i])
	}
	return out
}

func (p *Plugin) surge(ctx context.Context, req SurgeRequest) (*SurgeResponse, error) {
	def := techniques[req.Technique]
	stim := stimulus{
		word:     p.sample(randomWords, 1)[0],
		object:   p.sample(randomObjects, 1)[0],
		concepts: p.sample(combinationConcepts, 4),
	}

	temperature := def.temperature
	resp, err := p.deps.Client.Complete(ctx, claude.CompletionRequest{
		Prompt:       def.prompt(req, stim),
		SystemPrompt: def.systemPrompt(req),
		MaxTokens:    def.maxTokens,
		Temperature:  &temperature,
	})
	if err != nil {
		return nil, err
	}

	ideas := parseIdeas(resp.Content, req.Technique)
	logger.InfoCtx(ctx, "creativity surge %s produced %d ideas", req.Technique, len(ideas))

	return &SurgeResponse{
		Challenge:           req.Challenge,
		Technique:           req.Technique,
		Ideas:               ideas,
		BreakthroughMoments: breakthroughs(ideas, req.Technique),
		PatternsIdentified:  patterns(ideas),
		EnergyBoost:         energyBoost(req.Intensity, len(ideas)),
		Encouragement:       encouragement(ideas),
		NextTechniques:      nextTechniques(req.Technique, ideas),
		CreativeMomentum:    momentum(ideas, req.Intensity),
	}, nil
}
