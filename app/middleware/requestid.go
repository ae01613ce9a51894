package middleware

import (
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the request context so every log
// line of the request carries it
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
