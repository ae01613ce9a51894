package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"hybridmcp/internal/plugin/brainstorm"

	"github.com/mark3labs/mcp-go/mcp"
)

// BrainstormTool handles the brainstorm MCP tool.
type BrainstormTool struct {
	plugin *brainstorm.Plugin
}

// NewBrainstormTool creates a BrainstormTool.
func NewBrainstormTool(p *brainstorm.Plugin) *BrainstormTool {
	return &BrainstormTool{plugin: p}
}

// Definition returns the MCP tool definition for brainstorm.
func (t *BrainstormTool) Definition() mcp.Tool {
	return mcp.NewTool("brainstorm",
		mcp.WithDescription("Start a brainstorming session, or extend one by passing its session_id."),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("What to brainstorm about"),
		),
		mcp.WithString("intent",
			mcp.Description("exploration (default), problem_solving or creative_expansion"),
		),
		mcp.WithString("mood",
			mcp.Description("open (default), focused, playful or analytical"),
		),
		mcp.WithArray("constraints",
			mcp.Description("Constraints every idea should respect"),
			mcp.WithStringItems(),
		),
		mcp.WithString("session_id",
			mcp.Description("Existing session to extend"),
		),
	)
}

// Handle processes the brainstorm tool call.
func (t *BrainstormTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := brainstorm.Request{
		Topic:       req.GetString("topic", ""),
		Intent:      req.GetString("intent", ""),
		Mood:        req.GetString("mood", ""),
		Constraints: stringsArg(req, "constraints"),
	}

	var (
		resp *brainstorm.Response
		err  error
	)
	if id := req.GetString("session_id", ""); id != "" {
		resp, err = t.plugin.Extend(ctx, id, in)
	} else {
		if in.Topic == "" {
			return mcp.NewToolResultError("'topic' is required"), nil
		}
		resp, err = t.plugin.Start(ctx, in)
	}
	if err != nil {
		return toolError("brainstorm", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Brainstorm (session %s)\n\n", resp.SessionID)
	for i, idea := range resp.Ideas {
		fmt.Fprintf(&sb, "%d. %s [%s, %s impact]\n", i+1, idea.Idea, idea.Category, idea.PotentialImpact)
	}
	if len(resp.Themes) > 0 {
		fmt.Fprintf(&sb, "\n**Themes**: %s\n", strings.Join(resp.Themes, ", "))
	}
	if len(resp.NextDirections) > 0 {
		sb.WriteString("\n**Next directions**:\n")
		for _, d := range resp.NextDirections {
			fmt.Fprintf(&sb, "- %s\n", d)
		}
	}
	fmt.Fprintf(&sb, "\n%s\n", resp.Encouragement)
	return mcp.NewToolResultText(sb.String()), nil
}
