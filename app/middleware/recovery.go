package middleware

import (
	"net/http"
	"runtime/debug"

	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/status"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 response carrying the request
// id. The stack trace is only logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			logger.ErrorCtx(ctx, "handler panic on %s %s: %s\n%s",
				c.Request.Method, c.FullPath(), status.Redact(panicMessage(r)), debug.Stack())

			body := gin.H{"error": "internal server error"}
			if id := c.Writer.Header().Get(RequestIDHeader); id != "" {
				body["request_id"] = id
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}

func panicMessage(r interface{}) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "non-error panic value"
	}
}
