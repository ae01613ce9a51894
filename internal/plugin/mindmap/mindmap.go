// Package mindmap builds recursive concept maps with cross connections
// and keeps them as sessions that can be expanded later.
package mindmap

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
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	Name = "mindmap"

	maxDepth   = 3
	maxBreadth = 8
)

// Request mindmap creation request
type Request struct {
	CentralConcept      string                 `json:"central_concept" binding:"required"`
	Depth               int                    `json:"depth,omitempty"`
	Breadth             int                    `json:"breadth,omitempty"`
	FocusAreas          []string               `json:"focus_areas,omitempty"`
	ThinkingStyle       string                 `json:"thinking_style,omitempty"`       // balanced, analytical, creative, practical
	VisualizationFormat string                 `json:"visualization_format,omitempty"` // hierarchical, radial, network
	Context             map[string]interface{} `json:"context,omitempty"`
}

// applyDefaults fills defaults and clamps depth and breadth
func (r *Request) applyDefaults() {
	if r.Depth <= 0 {
		r.Depth = 3
	}
	if r.Breadth <= 0 {
		r.Breadth = 5
	}
	r.Depth = min(r.Depth, maxDepth)
	r.Breadth = min(r.Breadth, maxBreadth)
	if r.ThinkingStyle == "" {
		r.ThinkingStyle = "balanced"
	}
	if r.VisualizationFormat == "" {
		r.VisualizationFormat = "hierarchical"
	}
}

// ExpandRequest grows one node further
type ExpandRequest struct {
	AdditionalDepth int `json:"additional_depth,omitempty"`
}

// ConnectRequest adds a user defined edge
type ConnectRequest struct {
	FromNode     string `json:"from_node" binding:"required"`
	ToNode       string `json:"to_node" binding:"required"`
	Relationship string `json:"relationship" binding:"required"`
}

// Response full map state
type Response struct {
	SessionID          string        `json:"session_id"`
	CentralConcept     string        `json:"central_concept"`
	Nodes              []*Node       `json:"nodes"`
	Edges              []*Edge       `json:"edges"`
	Structure          Structure     `json:"structure"`
	Insights           []string      `json:"insights"`
	Suggestions        []string      `json:"suggestions"`
	VisualizationData  Visualization `json:"visualization_data"`
	EmpatheticGuidance string        `json:"empathetic_guidance"`
}

// SessionInfo summary of a stored map
type SessionInfo struct {
	SessionID      string    `json:"session_id"`
	CentralConcept string    `json:"central_concept"`
	NodesCount     int       `json:"nodes_count"`
	EdgesCount     int       `json:"edges_count"`
	Depth          int       `json:"depth"`
	Breadth        int       `json:"breadth"`
	ThinkingStyle  string    `json:"thinking_style"`
	CreatedAt      time.Time `json:"created_at"`
	LastModified   time.Time `json:"last_modified"`
}

// sessionData is persisted in model.Session.Data
type sessionData struct {
	Depth         int     `json:"depth"`
	Breadth       int     `json:"breadth"`
	ThinkingStyle string  `json:"thinking_style"`
	Nodes         []*Node `json:"nodes"`
	Edges         []*Edge `json:"edges"`
}

func (d sessionData) graph() *graph {
	return &graph{Nodes: d.Nodes, Edges: d.Edges}
}

// expandPayload is sent to the remote function when expanding
type expandPayload struct {
	SessionID       string      `json:"session_id"`
	CentralConcept  string      `json:"central_concept"`
	Session         sessionData `json:"session"`
	NodeID          string      `json:"node_id"`
	AdditionalDepth int         `json:"additional_depth"`
}

// Plugin mindmap plugin
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
		Description: "Recursive concept branching mapped for clarity with empathetic guidance",
		Author:      "hybridmcp",
		Requires:    []string{"claude", "sessions"},
		Enabled:     true,
	}
}

// Initialize implements plugin.Plugin
func (p *Plugin) Initialize(ctx context.Context) error {
	if p.deps.Exec == nil || p.deps.Client == nil || p.deps.Sessions == nil {
		return fmt.Errorf("mindmap requires an executor, a model client and a session store")
	}
	return nil
}

// Shutdown implements plugin.Plugin
func (p *Plugin) Shutdown(ctx context.Context) error {
	return nil
}

// RegisterRoutes implements plugin.Plugin
func (p *Plugin) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/mindmap")
	g.POST("/create", p.handleCreate)
	g.POST("/expand/:id/:node", p.handleExpand)
	g.POST("/connect/:id", p.handleConnect)
	g.GET("/sessions", p.handleList)
	g.GET("/sessions/:id", p.handleGet)
	g.DELETE("/sessions/:id", p.handleDelete)
}

func (p *Plugin) handleCreate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.Create(c.Request.Context(), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleExpand(c *gin.Context) {
	var req ExpandRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	resp, err := p.Expand(c.Request.Context(), c.Param("id"), c.Param("node"), req.AdditionalDepth)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (p *Plugin) handleConnect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	edge, err := p.Connect(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": edge})
}

func (p *Plugin) handleList(c *gin.Context) {
	sessions, err := p.Sessions(c.Request.Context())
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_sessions": sessions})
}

func (p *Plugin) handleGet(c *gin.Context) {
	info, err := p.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (p *Plugin) handleDelete(c *gin.Context) {
	if err := p.Delete(c.Request.Context(), c.Param("id")); err != nil {
		plugin.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// Create builds a new map and stores it as a session
func (p *Plugin) Create(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.CentralConcept) == "" {
		return nil, fmt.Errorf("%w: central_concept is required", service.ErrInvalidInput)
	}
	req.applyDefaults()
	sessionID := uuid.New().String()

	task := hybrid.TaskDescriptor{
		Name:              "mindmap_" + plugin.Truncate(req.CentralConcept, 20),
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: 300 * time.Second,
		EstimatedCPU:      0.4,
		EstimatedMemory:   0.3,
		FunctionName:      "ideation/mindmap_create",
	}

	resp, err := plugin.Run(ctx, p.deps.Exec, task, req, func(ctx context.Context) (*Response, error) {
		b := &builder{client: p.deps.Client, style: req.ThinkingStyle}
		g := newGraph(req.CentralConcept, req.ThinkingStyle)

		branches, err := b.branches(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, branch := range branches {
			if err := b.grow(ctx, g, branch, centralID, 1, req.Depth, req.Breadth); err != nil {
				return nil, err
			}
		}
		if err := b.crossConnect(ctx, g); err != nil {
			return nil, err
		}
		return respond(sessionID, req.CentralConcept, g, req.VisualizationFormat, req.ThinkingStyle), nil
	})
	if err != nil {
		return nil, err
	}
	resp.SessionID = sessionID

	now := p.now()
	sess := &model.Session{ID: sessionID, Topic: req.CentralConcept, CreatedAt: now, UpdatedAt: now}
	data := sessionData{Depth: req.Depth, Breadth: req.Breadth, ThinkingStyle: req.ThinkingStyle, Nodes: resp.Nodes, Edges: resp.Edges}
	if err := p.save(ctx, sess, data); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "mindmap %s created with %d nodes and %d edges", sessionID, len(resp.Nodes), len(resp.Edges))
	return resp, nil
}

// Expand grows nodeID by additionalDepth levels
func (p *Plugin) Expand(ctx context.Context, sessionID, nodeID string, additionalDepth int) (*Response, error) {
	sess, data, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if additionalDepth <= 0 {
		additionalDepth = 1
	}
	additionalDepth = min(additionalDepth, maxDepth)

	g := data.graph()
	node, ok := g.node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s in mindmap %s: %w", nodeID, sessionID, interfaces.ErrNotFound)
	}

	task := hybrid.TaskDescriptor{
		Name:              "mindmap_expand_" + nodeID,
		Priority:          hybrid.PriorityMedium,
		EstimatedDuration: 180 * time.Second,
		EstimatedCPU:      0.3,
		EstimatedMemory:   0.2,
		FunctionName:      "ideation/mindmap_expand",
	}
	payload := expandPayload{
		SessionID:       sessionID,
		CentralConcept:  sess.Topic,
		Session:         data,
		NodeID:          nodeID,
		AdditionalDepth: additionalDepth,
	}

	resp, err := plugin.Run(ctx, p.deps.Exec, task, payload, func(ctx context.Context) (*Response, error) {
		b := &builder{client: p.deps.Client, style: data.ThinkingStyle}
		subs, err := b.subBranches(ctx, node.Label, data.Breadth, node.Level+1)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if err := b.grow(ctx, g, sub, nodeID, node.Level+1, node.Level+additionalDepth, data.Breadth); err != nil {
				return nil, err
			}
		}
		return respond(sessionID, sess.Topic, g, "hierarchical", data.ThinkingStyle), nil
	})
	if err != nil {
		return nil, err
	}

	sess.UpdatedAt = p.now()
	data.Nodes, data.Edges = resp.Nodes, resp.Edges
	if err := p.save(ctx, sess, data); err != nil {
		return nil, err
	}
	return resp, nil
}

// Connect adds a user defined edge between two existing nodes
func (p *Plugin) Connect(ctx context.Context, sessionID string, req ConnectRequest) (*Edge, error) {
	sess, data, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	g := data.graph()
	edge, err := g.connect("user_edge", req.FromNode, req.ToNode, req.Relationship, 0.7, "User-defined connection: "+req.Relationship)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	sess.UpdatedAt = p.now()
	data.Nodes, data.Edges = g.Nodes, g.Edges
	if err := p.save(ctx, sess, data); err != nil {
		return nil, err
	}
	return edge, nil
}

// Session describes one stored map
func (p *Plugin) Session(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, data, err := p.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	info := sessionInfo(sess, data)
	return &info, nil
}

// Sessions lists live maps
func (p *Plugin) Sessions(ctx context.Context) ([]SessionInfo, error) {
	sessions, err := p.deps.Sessions.List(ctx, model.SessionKindMindmap)
	if err != nil {
		return nil, err
	}
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		var data sessionData
		if err := json.Unmarshal(s.Data, &data); err != nil {
			logger.WarnCtx(ctx, "skipping unreadable mindmap session %s: %v", s.ID, err)
			continue
		}
		out = append(out, sessionInfo(s, data))
	}
	return out, nil
}

// Delete removes a stored map
func (p *Plugin) Delete(ctx context.Context, sessionID string) error {
	if _, _, err := p.load(ctx, sessionID); err != nil {
		return err
	}
	return p.deps.Sessions.Delete(ctx, model.SessionKindMindmap, sessionID)
}

func sessionInfo(s *model.Session, data sessionData) SessionInfo {
	return SessionInfo{
		SessionID:      s.ID,
		CentralConcept: s.Topic,
		NodesCount:     len(data.Nodes),
		EdgesCount:     len(data.Edges),
		Depth:          data.Depth,
		Breadth:        data.Breadth,
		ThinkingStyle:  data.ThinkingStyle,
		CreatedAt:      s.CreatedAt,
		LastModified:   s.UpdatedAt,
	}
}

func (p *Plugin) load(ctx context.Context, id string) (*model.Session, sessionData, error) {
	var data sessionData
	sess, err := p.deps.Sessions.Get(ctx, model.SessionKindMindmap, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, data, fmt.Errorf("mindmap session %s: %w", id, service.ErrSessionNotFound)
	}
	if err != nil {
		return nil, data, err
	}
	if err := json.Unmarshal(sess.Data, &data); err != nil {
		return nil, data, fmt.Errorf("failed to decode mindmap session %s: %w", id, err)
	}
	return sess, data, nil
}

func (p *Plugin) save(ctx context.Context, sess *model.Session, data sessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode mindmap session: %w", err)
	}
	sess.Kind = model.SessionKindMindmap
	sess.Data = raw
	return p.deps.Sessions.Save(ctx, sess)
}

func respond(sessionID, concept string, g *graph, format, style string) *Response {
	return &Response{
		SessionID:          sessionID,
		CentralConcept:     concept,
		Nodes:              g.Nodes,
		Edges:              g.Edges,
		Structure:          analyze(g),
		Insights:           insights(g, style),
		Suggestions:        suggestions(g, concept),
		VisualizationData:  visualize(g, format, style),
		EmpatheticGuidance: guidance(concept, len(g.Nodes), style),
	}
}
