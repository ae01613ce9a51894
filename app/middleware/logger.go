package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"
)

const maxLoggedBody = 1000

// Logger logs every request and records it in the HTTP metrics
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var body string
		if c.Request.Method == http.MethodPost {
			body = getRequestBody(c)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), latency)

		// Skip logging for 404 requests
		if status == http.StatusNotFound {
			return
		}

		ctx := c.Request.Context()
		if body != "" {
			logger.InfoCtx(ctx, "[GIN] %3d | %13v | %15s | %s %s | body: %s",
				status, latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI, body)
			return
		}
		logger.InfoCtx(ctx, "[GIN] %3d | %13v | %15s | %s %s",
			status, latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI)
	}
}

// getRequestBody reads the body and puts it back for the handler
func getRequestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return CompressBody(string(bodyBytes))
}

// CompressBody compresses JSON using pretty package
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}

	// Ugly removes all whitespace
	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > maxLoggedBody {
		return string(compressed[:maxLoggedBody]) + "..."
	}
	return string(compressed)
}
