package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader alternative to a bearer token
const APIKeyHeader = "X-API-Key"

// AuthMiddleware requires the server API key as a bearer token or in the
// X-API-Key header. An empty apiKey leaves the routes open.
func AuthMiddleware(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(apiKey)

	return func(c *gin.Context) {
		presented := c.GetHeader(APIKeyHeader)
		if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
			presented = bearer
		}

		if presented == "" {
			c.Header("WWW-Authenticate", `Bearer realm="hybridmcp"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), want) != 1 {
			logger.WarnCtx(c.Request.Context(), "rejected request to %s with an invalid API key", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
