package middleware

import (
	"net/http"

	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects clients exceeding the limiter with 429. A limiter
// failure lets the request through.
func RateLimit(limiter interfaces.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
