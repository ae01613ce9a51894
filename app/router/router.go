package router

import (
	"hybridmcp/app/handler"
	"hybridmcp/app/middleware"
	"hybridmcp/internal/plugin"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Options middleware settings for the API
type Options struct {
	APIKey      string
	CORSOrigins []string
	RateLimiter interfaces.RateLimiter
}

// Router Router
type Router struct {
	completionHandler *handler.CompletionHandler
	hybridHandler     *handler.HybridHandler
	taskHandler       *handler.TaskHandler
	systemHandler     *handler.SystemHandler
	plugins           *plugin.Registry
	opts              Options
}

// NewRouter creates a new Router
func NewRouter(completionHandler *handler.CompletionHandler, hybridHandler *handler.HybridHandler, taskHandler *handler.TaskHandler,
	systemHandler *handler.SystemHandler, plugins *plugin.Registry, opts Options) *Router {
	return &Router{
		completionHandler: completionHandler,
		hybridHandler:     hybridHandler,
		taskHandler:       taskHandler,
		systemHandler:     systemHandler,
		plugins:           plugins,
		opts:              opts,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(r.opts.CORSOrigins))

	// Probes stay outside auth and rate limiting
	engine.GET("/health", r.systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/v1")
	v1.Use(middleware.AuthMiddleware(r.opts.APIKey))
	v1.Use(middleware.RateLimit(r.opts.RateLimiter))
	{
		// Model operations
		v1.POST("/complete", r.completionHandler.Complete)
		v1.POST("/chat", r.completionHandler.Chat)
		v1.POST("/analyze-code", r.completionHandler.AnalyzeCode)
		v1.POST("/vibe-code", r.completionHandler.VibeCode)
		v1.GET("/ws/complete", r.completionHandler.StreamSocket)

		// Server information
		v1.GET("/plugins", r.systemHandler.Plugins)
		v1.GET("/settings", r.systemHandler.Settings)

		// Execution routing
		hybrid := v1.Group("/hybrid")
		{
			hybrid.GET("/status", r.hybridHandler.Status)
			hybrid.POST("/decide", r.hybridHandler.Decide)
			hybrid.GET("/thresholds", r.hybridHandler.Thresholds)
			hybrid.GET("/executions", r.hybridHandler.ListExecutions)
			hybrid.GET("/executions/:id", r.hybridHandler.GetExecution)
		}

		// Async tasks
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", r.taskHandler.Submit)
			tasks.GET("/stats", r.taskHandler.Stats)
			tasks.GET("/:task_id", r.taskHandler.Status)
		}

		// Plugin routes (brainstorm, mindmap, perspective-shift, vibe)
		r.plugins.RegisterRoutes(v1)
	}
}
