package mcpserver

import (
	"context"
	"time"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/hybrid"

	"github.com/mark3labs/mcp-go/mcp"
)

// RouteDecisionTool handles the route_decision MCP tool.
type RouteDecisionTool struct {
	exec *service.ExecutionService
}

// NewRouteDecisionTool creates a RouteDecisionTool.
func NewRouteDecisionTool(exec *service.ExecutionService) *RouteDecisionTool {
	return &RouteDecisionTool{exec: exec}
}

// Definition returns the MCP tool definition for route_decision.
func (t *RouteDecisionTool) Definition() mcp.Tool {
	return mcp.NewTool("route_decision",
		mcp.WithDescription("Preview where a task would run. Readings that are not given are sampled from this machine, "+
			"unless at least one reading is given, in which case the missing ones count as unavailable."),
		mcp.WithString("name",
			mcp.Description("Task name (default: adhoc)"),
		),
		mcp.WithNumber("estimated_duration_seconds",
			mcp.Description("Expected run time in seconds"),
		),
		mcp.WithBoolean("uses_gpu",
			mcp.Description("Whether the task needs the GPU"),
		),
		mcp.WithBoolean("requires_specialized_service",
			mcp.Description("Whether the task needs a remote-only service"),
		),
		mcp.WithNumber("cpu_percent",
			mcp.Description("CPU utilization 0-100"),
		),
		mcp.WithNumber("memory_percent",
			mcp.Description("Memory utilization 0-100"),
		),
		mcp.WithNumber("gpu_percent",
			mcp.Description("GPU utilization 0-100"),
		),
		mcp.WithBoolean("network_available",
			mcp.Description("Whether remote execution is reachable (default: true)"),
		),
	)
}

// Handle processes the route_decision tool call.
func (t *RouteDecisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := hybrid.TaskDescriptor{
		Name:                       req.GetString("name", "adhoc"),
		UsesGPU:                    req.GetBool("uses_gpu", false),
		RequiresSpecializedService: req.GetBool("requires_specialized_service", false),
	}
	if v := floatArg(req, "estimated_duration_seconds"); v != nil {
		d, err := hybrid.DurationFromSeconds(*v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		task.EstimatedDuration = d
	}

	var snap hybrid.ResourceSnapshot
	cpu, mem, gpu := floatArg(req, "cpu_percent"), floatArg(req, "memory_percent"), floatArg(req, "gpu_percent")
	if cpu == nil && mem == nil && gpu == nil {
		snap = t.exec.Sample(ctx)
	} else {
		snap = hybrid.ResourceSnapshot{
			CPUPercent:       cpu,
			MemoryPercent:    mem,
			GPUPercent:       gpu,
			NetworkAvailable: req.GetBool("network_available", true),
			SampledAt:        time.Now(),
		}
	}

	d := t.exec.Decide(ctx, &snap, task)
	return jsonResult(map[string]interface{}{
		"decision": d,
		"snapshot": snap,
	}), nil
}

// SystemStatusTool handles the system_status MCP tool.
type SystemStatusTool struct {
	exec *service.ExecutionService
}

// NewSystemStatusTool creates a SystemStatusTool.
func NewSystemStatusTool(exec *service.ExecutionService) *SystemStatusTool {
	return &SystemStatusTool{exec: exec}
}

// Definition returns the MCP tool definition for system_status.
func (t *SystemStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("system_status",
		mcp.WithDescription("Show current resource usage, routing thresholds and running tasks."),
	)
}

// Handle processes the system_status tool call.
func (t *SystemStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.exec.Status(ctx)
	if err != nil {
		return toolError("status", err), nil
	}
	return jsonResult(st), nil
}
