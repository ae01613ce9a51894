package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/status"

	"github.com/mark3labs/mcp-go/mcp"
)

// floatArg extracts a number argument, returning nil when absent.
// JSON numbers arrive as float64.
func floatArg(req mcp.CallToolRequest, key string) *float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

// stringsArg extracts a string array argument, skipping non-string items
func stringsArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objectArg extracts an object argument
func objectArg(req mcp.CallToolRequest, key string) map[string]interface{} {
	v, _ := req.GetArguments()[key].(map[string]interface{})
	return v
}

// toolError reports a failed operation with secrets redacted and, for
// upstream failures, a hint on what to do next
func toolError(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s failed: %s", action, status.RedactError(err))
	if sanitized := status.Sanitize(err); sanitized != nil && sanitized.ErrorCode != "INTERNAL_ERROR" {
		msg += "\n" + sanitized.UserMessage + ". " + sanitized.Suggestion
	}
	return mcp.NewToolResultError(msg)
}

// jsonResult renders v as an indented JSON text result
func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// completionResult renders the model reply followed by where it ran
func completionResult(res *service.CompletionResult) *mcp.CallToolResult {
	var sb strings.Builder
	if res.Response != nil {
		sb.WriteString(res.Response.Content)
	}
	if exec := res.Execution; exec != nil {
		sb.WriteString("\n\n---\n")
		fmt.Fprintf(&sb, "Executed: %s", exec.Location)
		if exec.FallbackUsed {
			sb.WriteString(" (fallback)")
		}
		fmt.Fprintf(&sb, " | %s", exec.Decision.Rationale)
	}
	return mcp.NewToolResultText(sb.String())
}
