package mindmap

import (
	"context"
	"fmt"
	"strings"

	"hybridmcp/internal/plugin"
	"hybridmcp/pkg/claude"
)

// NodeType role of a node in the map
type NodeType string

const (
	NodeCore   NodeType = "core"
	NodeBranch NodeType = "branch"
	NodeLeaf   NodeType = "leaf"
)

const centralID = "central"

// Node one concept in the map
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        NodeType `json:"type"`
	Level       int      `json:"level"`
	ParentID    string   `json:"parent_id,omitempty"`
	Children    []string `json:"children"`
	Connections []string `json:"connections"`
	Weight      float64  `json:"weight"`
	Color       string   `json:"color,omitempty"`
	Description string   `json:"description,omitempty"`
	Examples    []string `json:"examples"`
	Reasoning   string   `json:"reasoning"`
}

// Edge relationship between two nodes
type Edge struct {
	ID           string  `json:"id"`
	FromNode     string  `json:"from_node"`
	ToNode       string  `json:"to_node"`
	Relationship string  `json:"relationship"`
	Strength     float64 `json:"strength"`
	Reasoning    string  `json:"reasoning"`
}

// graph keeps nodes and edges in insertion order
type graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
	index map[string]*Node
}

func newGraph(concept, style string) *graph {
	g := &graph{}
	g.addNode(&Node{
		ID:        centralID,
		Label:     concept,
		Type:      NodeCore,
		Reasoning: "Central concept of the mindmap",
		Color:     colorFor(style, 0),
	})
	return g
}

func (g *graph) reindex() {
	g.index = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index[n.ID] = n
	}
}

func (g *graph) node(id string) (*Node, bool) {
	if g.index == nil {
		g.reindex()
	}
	n, ok := g.index[id]
	return n, ok
}

func (g *graph) addNode(n *Node) {
	if g.index == nil {
		g.reindex()
	}
	if n.Weight == 0 {
		n.Weight = 1
	}
	if n.Children == nil {
		n.Children = []string{}
	}
	if n.Connections == nil {
		n.Connections = []string{}
	}
	if n.Examples == nil {
		n.Examples = []string{}
	}
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = n
}

// connect adds an undirected cross edge and records it on both nodes
func (g *graph) connect(prefix, from, to, relationship string, strength float64, reasoning string) (*Edge, error) {
	a, okA := g.node(from)
	b, okB := g.node(to)
	if !okA || !okB {
		return nil, fmt.Errorf("cannot connect %s to %s: unknown node", from, to)
	}
	e := &Edge{
		ID:           fmt.Sprintf("%s_%d", prefix, len(g.Edges)),
		FromNode:     from,
		ToNode:       to,
		Relationship: relationship,
		Strength:     strength,
		Reasoning:    reasoning,
	}
	g.Edges = append(g.Edges, e)
	a.Connections = append(a.Connections, to)
	b.Connections = append(b.Connections, from)
	return e, nil
}

// builder grows a graph with model calls
type builder struct {
	client completer
	style  string
}

type completer interface {
	Complete(ctx context.Context, req claude.CompletionRequest) (*claude.Response, error)
}

func (b *builder) complete(ctx context.Context, prompt, system string, maxTokens int, temperature float64) (string, error) {
	resp, err := b.client.Complete(ctx, claude.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: system,
		MaxTokens:    maxTokens,
		Temperature:  &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (b *builder) branches(ctx context.Context, req Request) ([]string, error) {
	content, err := b.complete(ctx, branchPrompt(req), branchSystemPrompt(b.style), 800, 0.7)
	if err != nil {
		return nil, err
	}
	return parseBranches(content, req.Breadth), nil
}

func (b *builder) subBranches(ctx context.Context, parent string, count, level int) ([]string, error) {
	content, err := b.complete(ctx, subBranchPrompt(parent, b.style, count, level), branchSystemPrompt(b.style), 400, 0.7)
	if err != nil {
		return nil, err
	}
	return parseBranches(content, count), nil
}

func (b *builder) details(ctx context.Context, label string) (string, []string, error) {
	content, err := b.complete(ctx, detailPrompt(label, b.style), detailSystemPrompt(b.style), 300, 0.6)
	if err != nil {
		return "", nil, err
	}
	desc, examples := parseDetails(content, label)
	return desc, examples, nil
}

// relationship returns "" when the model sees no meaningful link
func (b *builder) relationship(ctx context.Context, a, c string) (string, error) {
	content, err := b.complete(ctx, relationshipPrompt(a, c, b.style), relationshipSystemPrompt(b.style), 50, 0.4)
	if err != nil {
		return "", err
	}
	rel := strings.ToLower(strings.TrimSpace(content))
	if rel == "none" || rel == "" || len(rel) > 50 {
		return "", nil
	}
	return rel, nil
}

// grow adds label under parentID and recurses until maxDepth
func (b *builder) grow(ctx context.Context, g *graph, label, parentID string, level, maxDepth, breadth int) error {
	desc, examples, err := b.details(ctx, label)
	if err != nil {
		return err
	}

	nodeType := NodeLeaf
	if level < maxDepth {
		nodeType = NodeBranch
	}
	n := &Node{
		ID:          fmt.Sprintf("node_%d", len(g.Nodes)),
		Label:       label,
		Type:        nodeType,
		Level:       level,
		ParentID:    parentID,
		Color:       colorFor(b.style, level),
		Description: desc,
		Examples:    examples,
		Reasoning:   fmt.Sprintf("Branch exploring %s in relation to parent concept", label),
	}
	g.addNode(n)

	if parent, ok := g.node(parentID); ok {
		parent.Children = append(parent.Children, n.ID)
		if parent.Type == NodeLeaf {
			parent.Type = NodeBranch
		}
	}
	g.Edges = append(g.Edges, &Edge{
		ID:           fmt.Sprintf("edge_%d", len(g.Edges)),
		FromNode:     parentID,
		ToNode:       n.ID,
		Relationship: "explores",
		Strength:     0.8,
		Reasoning:    fmt.Sprintf("Direct exploration of %s from parent concept", label),
	})

	if level >= maxDepth {
		return nil
	}
	subs, err := b.subBranches(ctx, label, min(breadth, 3), level)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := b.grow(ctx, g, sub, n.ID, level+1, maxDepth, breadth); err != nil {
			return err
		}
	}
	return nil
}

// crossConnect links neighbouring nodes on levels one and two
func (b *builder) crossConnect(ctx context.Context, g *graph) error {
	for _, level := range []int{1, 2} {
		var peers []*Node
		for _, n := range g.Nodes {
			if n.Level == level {
				peers = append(peers, n)
			}
		}
		for i := 0; i < min(2, len(peers)-1); i++ {
			rel, err := b.relationship(ctx, peers[i].Label, peers[i+1].Label)
			if err != nil {
				return err
			}
			if rel == "" {
				continue
			}
			if _, err := g.connect("cross_edge", peers[i].ID, peers[i+1].ID, rel, 0.6, "Cross-connection based on "+rel); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseBranches prefers list items and falls back to plain lines
func parseBranches(content string, limit int) []string {
	var lines, items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 3 || strings.HasPrefix(line, "#") {
			continue
		}
		label := plugin.CleanItem(line)
		if label == "" {
			continue
		}
		lines = append(lines, label)
		if plugin.IsListItem(line) {
			items = append(items, label)
		}
	}
	out := lines
	if len(items) > 0 {
		out = items
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// parseDetails reads the description and example sections of a detail answer
func parseDetails(content, label string) (string, []string) {
	var desc []string
	var examples []string
	section := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "description"):
			section = "description"
			continue
		case strings.Contains(lower, "example"):
			section = "examples"
			continue
		}
		switch section {
		case "description":
			desc = append(desc, line)
		case "examples":
			if !strings.HasPrefix(line, "#") {
				examples = append(examples, plugin.CleanItem(line))
			}
		}
	}

	description := strings.Join(desc, " ")
	if description == "" {
		description = fmt.Sprintf("Concept exploring %s and its implications.", label)
	}
	if len(examples) == 0 {
		examples = []string{"Example application of " + label}
	}
	if len(examples) > 3 {
		examples = examples[:3]
	}
	return description, examples
}
