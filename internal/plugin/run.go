package plugin

import (
	"context"
	"net/http"
	"strings"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Executor runs routed tasks
type Executor interface {
	Execute(ctx context.Context, task hybrid.TaskDescriptor, local service.LocalFunc, payload interface{}) (*service.ExecutionResult, error)
}

// Deps shared plugin dependencies
type Deps struct {
	Exec     Executor
	Client   service.CompletionClient
	Sessions interfaces.SessionStore
}

// Run executes local through the router and decodes the result, which may
// have been produced remotely, into T.
func Run[T any](ctx context.Context, exec Executor, task hybrid.TaskDescriptor, payload interface{},
	local func(ctx context.Context) (T, error)) (T, error) {
	var out T
	res, err := exec.Execute(ctx, task, func(ctx context.Context) (interface{}, error) {
		return local(ctx)
	}, payload)
	if err != nil {
		return out, err
	}
	if err := res.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// RespondError writes err as {"error": ...} with the mapped status
func RespondError(c *gin.Context, err error) {
	status := service.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), "plugin request %s failed: %v", c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// listMarkers prefixes that start a list item in model output
var listMarkers = []string{"- ", "* ", "• "}

// IsListItem reports whether a trimmed line starts a bullet or numbered item
func IsListItem(line string) bool {
	for _, m := range listMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')')
}

// ListItems splits model output into list items. Continuation lines are
// appended to the current item; text before the first item is dropped.
func ListItems(content string) []string {
	var items []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			items = append(items, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsListItem(line) {
			flush()
			current.WriteString(line)
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
			current.WriteString(line)
		}
	}
	flush()
	return items
}

// CleanItem strips list markers and numbering from an item
func CleanItem(item string) string {
	return strings.TrimSpace(strings.TrimLeft(item, "-•*0123456789.) "))
}
