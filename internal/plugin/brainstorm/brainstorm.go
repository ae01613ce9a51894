// Package brainstorm runs open-ended idea generation sessions shaped by
// intent and mood.
package brainstorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/internal/plugin"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const Name = "brainstorm"

// Request brainstorming request
type Request struct {
	Topic           string                 `json:"topic" binding:"required"`
	Intent          string                 `json:"intent,omitempty"` // exploration, problem_solving, creative_expansion
	Mood            string                 `json:"mood,omitempty"`   // open, focused, playful, analytical
	Constraints     []string               `json:"constraints,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
	SessionID       string                 `json:"session_id,omitempty"`
	DurationMinutes int                    `json:"duration_minutes,omitempty"`
}

func (r *Request) applyDefaults() {
	if r.Intent == "" {
		r.Intent = "exploration"
	}
	if r.Mood == "" {
		r.Mood = "open"
	}
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = 15
	}
}

// Idea one generated idea
type Idea struct {
	Idea            string   `json:"idea"`
	Category        string   `json:"category"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	Connections     []string `json:"connections"`
	PotentialImpact string   `json:"potential_impact"`
}

// Response session state after a round of ideas
type Response struct {
	SessionID      string   `json:"session_id"`
	Ideas          []Idea   `json:"ideas"`
	Themes         []string `json:"themes"`
	NextDirections []string `json:"next_directions"`
	MoodAssessment string   `json:"mood_assessment"`
	Encouragement  string   `json:"encouragement"`
	SessionSummary string   `json:"session_summary"`
}

// SessionSummary listing entry
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Topic        string    `json:"topic"`
	Intent       string    `json:"intent"`
	Mood         string    `json:"mood"`
	IdeasCount   int       `json:"ideas_count"`
	ThemesCount  int       `json:"themes_count"`
	LastActivity time.Time `json:"last_activity"`
}

// sessionData is persisted in model.Session.Data
type sessionData struct {
	Intent string   `json:"intent"`
	Mood   string   `json:"mood"`
	Ideas  []Idea   `json:"ideas"`
	Themes []string `json:"themes"`
}

// extendPayload is sent to the remote function when extending
type extendPayload struct {
	Session sessionData `json:"session"`
	Topic   string      `json:"topic"`
	Request Request     `json:"request"`
}

// Plugin brainstorm plugin
type Plugin struct {
	deps plugin.Deps
	now  func() time.Time
}

// New creates the plugin
func New(deps plugin.Deps) *Plugin {
	return &Plugin{deps: deps, now: time.Now}
}

// Metadata implements plugin.Plugin
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        Name,
		Version:     "1.0.0",
		Description: "Empathetic idea generation triggered by intent or mood",
		Author:      "hybridmcp",
		Requires:    []string{"claude", "sessions"},
		Enabled:     true,
	}
}

// Initialize implements plugin.Plugin
func (p *Plugin) Initialize(ctx context.Context) error {
	if p.deps.Exec == nil || p.deps.Client == nil || p.deps.Sessions == nil {
		return fmt.Errorf("brainstorm requires an executor, a model client and a session store")
	}
	return nil
}

// Shutdown implements plugin.Plugin
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// RegisterRoutes implements plugin.Plugin
func (p *Plugin) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/brainstorm")
	g.POST("/session", p.handleStart)
	g.POST("/extend/:id", p.handleExtend)
	g.GET("/sessions", p.handleList)
	g.DELETE("/sessions/:id", p.handleEnd)
}

func (p *Plugin) handleStart(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.Start(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleExtend(c *gin.Context) {
	// topic is optional here, so binding validation is skipped
	var req Request
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.Extend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleList(c *gin.Context) {
	sessions, err := p.Sessions(c.Request.Context())
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_sessions": sessions})
}

func (p *Plugin) handleEnd(c *gin.Context) {
	if err := p.End(c.Request.Context(), c.Param("id")); err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session ended"})
}

// Start runs a new brainstorming session
func (p *Plugin) Start(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", service.ErrInvalidInput)
	}
	req.applyDefaults()
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	task := hybrid.TaskDescriptor{
		Name:              "brainstorm_" + plugin.Truncate(req.Topic, 20),
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: time.Duration(req.DurationMinutes) * time.Minute,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/brainstorm_session",
	}

	resp, err := plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*Response, error) {
		ideas, err := p.generate(ctx, startPrompt(req), req, 2000)
		if err != nil {
			return nil, err
		}
		return respond(req.SessionID, req.Topic, req, ideas, ideas), nil
	})
	if err != nil {
		return nil, err
	}

	now := p.now()
	if err := p.save(ctx, &model.Session{ID: resp.SessionID, Topic: req.Topic, CreatedAt: now, UpdatedAt: now},
		sessionData{Intent: req.Intent, Mood: req.Mood, Ideas: resp.Ideas, Themes: resp.Themes}); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "brainstorm session %s started with %d ideas", resp.SessionID, len(resp.Ideas))
	return resp, nil
}

// Extend adds a round of ideas to an existing session
func (p *Plugin) Extend(ctx context.Context, sessionID string, req Request) (*Response, error) {
	sess, data, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if req.Topic == "" {
		req.Topic = sess.Topic
	}
	req.applyDefaults()

	task := hybrid.TaskDescriptor{
		Name:              "brainstorm_extend_" + sessionID,
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: 10 * time.Minute,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/brainstorm_extend",
	}
	payload := extendPayload{Session: data, Topic: sess.Topic, Request: req}

	resp, err := plugin.Run(ctx, p.deps.Exec, task, payload, func(ctx context.Context) (*Response, error) {
		fresh, err := p.generate(ctx, extendPrompt(sess.Topic, data, req), req, 1500)
		if err != nil {
			return nil, err
		}
		all := append(append([]Idea{}, data.Ideas...), fresh...)
		return respond(sessionID, sess.Topic, req, all, fresh), nil
	})
	if err != nil {
		return nil, err
	}

	sess.UpdatedAt = p.now()
	if err := p.save(ctx, sess, sessionData{Intent: req.Intent, Mood: req.Mood, Ideas: resp.Ideas, Themes: resp.Themes}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Sessions lists live sessions
func (p *Plugin) Sessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := p.deps.Sessions.List(ctx, model.SessionKindBrainstorm)
	if err != nil {
		return nil, err
	}
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		var data sessionData
		if err := json.Unmarshal(s.Data, &data); err != nil {
			logger.WarnCtx(ctx, "skipping unreadable brainstorm session %s: %v", s.ID, err)
			continue
		}
		out = append(out, SessionSummary{
			SessionID:    s.ID,
			Topic:        s.Topic,
			Intent:       data.Intent,
			Mood:         data.Mood,
			IdeasCount:   len(data.Ideas),
			ThemesCount:  len(data.Themes),
			LastActivity: s.UpdatedAt,
		})
	}
	return out, nil
}

// End deletes a session
func (p *Plugin) End(ctx context.Context, sessionID string) error {
	if _, _, err := p.load(ctx, sessionID); err != nil {
		return err
	}
	return p.deps.Sessions.Delete(ctx, model.SessionKindBrainstorm, sessionID)
}

func (p *Plugin) generate(ctx context.Context, prompt string, req Request, maxTokens int) ([]Idea, error) {
	temperature := 0.8
	resp, err := p.deps.Client.Complete(ctx, claude.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt(req.Intent, req.Mood),
		Context:      req.Context,
		MaxTokens:    maxTokens,
		Temperature:  &temperature,
	})
	if err != nil {
		return nil, err
	}
	return parseIdeas(resp.Content), nil
}

func (p *Plugin) load(ctx context.Context, id string) (*model.Session, sessionData, error) {
	var data sessionData
	sess, err := p.deps.Sessions.Get(ctx, model.SessionKindBrainstorm, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, data, fmt.Errorf("brainstorm session %s: %w", id, service.ErrSessionNotFound)
	}
	if err != nil {
		return nil, data, err
	}
	if err := json.Unmarshal(sess.Data, &data); err != nil {
		return nil, data, fmt.Errorf("failed to decode brainstorm session %s: %w", id, err)
	}
	return sess, data, nil
}

func (p *Plugin) save(ctx context.Context, sess *model.Session, data sessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode brainstorm session: %w", err)
	}
	sess.Kind = model.SessionKindBrainstorm
	sess.Data = raw
	return p.deps.Sessions.Save(ctx, sess)
}

// respond assembles a response. all is the whole session, fresh the ideas of this round.
func respond(sessionID, topic string, req Request, all, fresh []Idea) *Response {
	themes := identifyThemes(all)
	return &Response{
		SessionID:      sessionID,
		Ideas:          all,
		Themes:         themes,
		NextDirections: nextDirections(themes, req.Intent),
		MoodAssessment: assessMood(req.Mood, len(all)),
		Encouragement:  encouragement(len(fresh), req.Mood),
		SessionSummary: summary(topic, req, len(all), themes),
	}
}
