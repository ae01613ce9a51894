package handler

import (
	"net/http"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/status"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": ...} with the status mapped from it.
// Server side failures are logged, redacted, and carry a code and a
// suggestion for the caller.
func respondError(c *gin.Context, action string, err error) {
	code := service.StatusCode(err)
	if code < http.StatusInternalServerError {
		logger.WarnCtx(c.Request.Context(), "failed to %s: %v", action, err)
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	logger.ErrorCtx(c.Request.Context(), "failed to %s: %v", action, err)
	sanitized := status.Sanitize(err)
	c.JSON(code, gin.H{
		"error":      status.RedactError(err),
		"code":       sanitized.ErrorCode,
		"message":    sanitized.UserMessage,
		"suggestion": sanitized.Suggestion,
	})
}
