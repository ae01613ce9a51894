// Package mcpserver exposes the routed completion operations as MCP tools
// over stdio.
package mcpserver

import (
	"hybridmcp/internal/plugin/brainstorm"
	"hybridmcp/internal/plugin/creativity"
	"hybridmcp/internal/service"

	"github.com/mark3labs/mcp-go/server"
)

const instructions = `hybridmcp routes Claude work between this machine and Azure Functions.
Use complete, analyze_code and vibe_code for model work; every result reports where it ran.
Use route_decision to preview where a task would run and system_status to inspect resources.`

// Deps services backing the tools. The plugin tools are optional.
type Deps struct {
	Completion *service.CompletionService
	Exec       *service.ExecutionService
	Brainstorm *brainstorm.Plugin
	Creativity *creativity.Plugin
}

// New creates the MCP server with every tool registered
func New(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"hybridmcp",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	complete := NewCompleteTool(deps.Completion)
	s.AddTool(complete.Definition(), complete.Handle)

	analyze := NewAnalyzeCodeTool(deps.Completion)
	s.AddTool(analyze.Definition(), analyze.Handle)

	vibe := NewVibeCodeTool(deps.Completion)
	s.AddTool(vibe.Definition(), vibe.Handle)

	route := NewRouteDecisionTool(deps.Exec)
	s.AddTool(route.Definition(), route.Handle)

	status := NewSystemStatusTool(deps.Exec)
	s.AddTool(status.Definition(), status.Handle)

	if deps.Brainstorm != nil {
		bs := NewBrainstormTool(deps.Brainstorm)
		s.AddTool(bs.Definition(), bs.Handle)
	}
	if deps.Creativity != nil {
		cs := NewCreativityTool(deps.Creativity)
		s.AddTool(cs.Definition(), cs.Handle)
	}
	return s
}

// Serve runs s on stdin/stdout until the input closes
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
