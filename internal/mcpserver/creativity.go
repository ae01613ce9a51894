package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"hybridmcp/internal/plugin/creativity"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreativityTool handles the creativity_surge MCP tool.
type CreativityTool struct {
	plugin *creativity.Plugin
}

// NewCreativityTool creates a CreativityTool.
func NewCreativityTool(p *creativity.Plugin) *CreativityTool {
	return &CreativityTool{plugin: p}
}

// Definition returns the MCP tool definition for creativity_surge.
func (t *CreativityTool) Definition() mcp.Tool {
	return mcp.NewTool("creativity_surge",
		mcp.WithDescription("Run a divergent thinking technique to generate scored ideas for a creative challenge."),
		mcp.WithString("challenge",
			mcp.Required(),
			mcp.Description("The creative challenge to work on"),
		),
		mcp.WithString("technique",
			mcp.Description("divergent_thinking (default), random_stimulation, constraint_removal, metaphor_thinking, what_if_scenarios, assumption_reversal, creative_combinations or emotional_catalyst"),
		),
		mcp.WithString("intensity",
			mcp.Description("low, medium (default), high or extreme"),
		),
		mcp.WithString("preferred_style",
			mcp.Description("playful, analytical, intuitive or balanced (default)"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("Planned session length; long sessions may run remotely"),
		),
	)
}

// Handle processes the creativity_surge tool call.
func (t *CreativityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	challenge := req.GetString("challenge", "")
	if challenge == "" {
		return mcp.NewToolResultError("'challenge' is required"), nil
	}

	in := creativity.SurgeRequest{
		Challenge:      challenge,
		Technique:      creativity.Technique(req.GetString("technique", "")),
		Intensity:      req.GetString("intensity", ""),
		PreferredStyle: req.GetString("preferred_style", ""),
	}
	if minutes := floatArg(req, "duration_minutes"); minutes != nil {
		in.DurationMinutes = int(*minutes)
	}

	resp, err := t.plugin.Surge(ctx, in)
	if err != nil {
		return toolError("creativity surge", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Creativity surge (%s)\n\n", resp.Technique)
	for i, idea := range resp.Ideas {
		fmt.Fprintf(&sb, "%d. %s [creativity %.2f, feasibility %.2f]\n",
			i+1, strings.TrimLeft(idea.Idea, "0123456789.)-*• "), idea.CreativityScore, idea.FeasibilityScore)
	}
	for _, b := range resp.BreakthroughMoments {
		fmt.Fprintf(&sb, "\n* %s", b)
	}
	if len(resp.NextTechniques) > 0 {
		fmt.Fprintf(&sb, "\n**Try next**: %s\n", strings.Join(resp.NextTechniques, ", "))
	}
	fmt.Fprintf(&sb, "\n%s\n%s (momentum %.2f)\n", resp.EnergyBoost, resp.Encouragement, resp.CreativeMomentum)
	return mcp.NewToolResultText(sb.String()), nil
}
