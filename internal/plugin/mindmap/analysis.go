package mindmap

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Structure shape statistics of a map
type Structure struct {
	TotalNodes     int         `json:"total_nodes"`
	TotalEdges     int         `json:"total_edges"`
	MaxDepth       int         `json:"max_depth"`
	LevelBreadth   map[int]int `json:"level_breadth"`
	AvgConnections float64     `json:"avg_connections"`
	Density        float64     `json:"density"`
}

// Position layout coordinates of a node
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout rendering hints
type Layout struct {
	NodeSize      int `json:"node_size"`
	EdgeThickness int `json:"edge_thickness"`
	Spacing       int `json:"spacing"`
}

// Visualization data for drawing a map
type Visualization struct {
	Format         string              `json:"format"`
	ThinkingStyle  string              `json:"thinking_style"`
	NodePositions  map[string]Position `json:"node_positions"`
	ColorScheme    []string            `json:"color_scheme"`
	LayoutSettings Layout              `json:"layout_settings"`
}

func analyze(g *graph) Structure {
	s := Structure{
		TotalNodes:   len(g.Nodes),
		TotalEdges:   len(g.Edges),
		LevelBreadth: make(map[int]int),
	}
	connections := 0
	for _, n := range g.Nodes {
		s.LevelBreadth[n.Level]++
		if n.Level > s.MaxDepth {
			s.MaxDepth = n.Level
		}
		connections += len(n.Connections)
	}
	if s.TotalNodes > 0 {
		s.AvgConnections = float64(connections) / float64(s.TotalNodes)
	}
	if s.TotalNodes > 1 {
		s.Density = float64(s.TotalEdges) / (float64(s.TotalNodes) * float64(s.TotalNodes-1) / 2)
	}
	return s
}

func insights(g *graph, style string) []string {
	var out []string

	firstLevel, cross := 0, 0
	for _, n := range g.Nodes {
		if n.Level == 1 {
			firstLevel++
		}
	}
	for _, e := range g.Edges {
		if strings.HasPrefix(e.ID, "cross_") {
			cross++
		}
	}

	if firstLevel > 5 {
		out = append(out, "Rich branching at the first level suggests a broad, multifaceted concept")
	}
	if cross > 0 {
		out = append(out, fmt.Sprintf("Found %d cross-connections, indicating interconnected themes", cross))
	}
	switch style {
	case "analytical":
		out = append(out, "Systematic exploration reveals logical structure and relationships")
	case "creative":
		out = append(out, "Creative exploration uncovers unexpected connections and possibilities")
	case "practical":
		out = append(out, "Practical focus highlights actionable insights and real-world applications")
	}
	return out
}

func suggestions(g *graph, concept string) []string {
	var out []string
	for _, n := range g.Nodes {
		if n.Type == NodeLeaf {
			out = append(out, fmt.Sprintf("Consider expanding '%s' for deeper insights", n.Label))
			break
		}
	}
	out = append(out,
		"Look for additional connections between related concepts",
		fmt.Sprintf("Try exploring '%s' from a different angle or context", concept),
		"Consider how these concepts apply to real-world situations")
	return out[:3]
}

// visualize lays nodes out radially, one ring per level
func visualize(g *graph, format, style string) Visualization {
	positions := make(map[string]Position, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Level == 0 {
			positions[n.ID] = Position{}
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(n.ID))
		angle := float64(h.Sum32()%360) * math.Pi / 180
		radius := float64(n.Level * 100)
		positions[n.ID] = Position{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}
	return Visualization{
		Format:         format,
		ThinkingStyle:  style,
		NodePositions:  positions,
		ColorScheme:    scheme(style),
		LayoutSettings: Layout{NodeSize: 50, EdgeThickness: 2, Spacing: 100},
	}
}

func guidance(concept string, nodes int, style string) string {
	switch style {
	case "analytical":
		return fmt.Sprintf("Excellent systematic exploration! Your mindmap of '%s' with %d nodes shows thorough analytical thinking. "+
			"The logical connections you've created will help you understand the concept's structure deeply.", concept, nodes)
	case "creative":
		return fmt.Sprintf("Wonderful creative exploration! Your %d-node mindmap reveals the rich, interconnected nature of '%s'. "+
			"Your creative connections open up exciting new possibilities for understanding.", nodes, concept)
	case "practical":
		return fmt.Sprintf("Great practical mapping! Your %d nodes provide a solid foundation for understanding '%s' in actionable terms. "+
			"This structure will help you implement ideas effectively.", nodes, concept)
	default:
		return fmt.Sprintf("Beautiful balanced exploration! Your %d-node mindmap captures both the logical structure and creative possibilities of '%s'. "+
			"This comprehensive view will serve you well in deeper exploration.", nodes, concept)
	}
}
