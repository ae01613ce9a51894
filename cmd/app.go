package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"hybridmcp/app/handler"
	"hybridmcp/internal/jobs"
	"hybridmcp/internal/mcpserver"
	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/brainstorm"
	"hybridmcp/internal/plugin/creativity"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/monitoring"
	redisstore "hybridmcp/pkg/store/redis"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

type mode string

const (
	modeServe mode = "serve"
	modeMCP   mode = "mcp"
)

// Application manages the lifecycle of the entire application
type Application struct {
	mode       mode
	configPath string

	// Infrastructure components
	config         *config.Config
	redisClient    *redisstore.RedisClient
	executionStore interfaces.ExecutionStore
	history        interfaces.SnapshotHistory
	sessions       interfaces.SessionStore
	rateLimiter    interfaces.RateLimiter
	taskQueue      interfaces.TaskQueue

	// Monitoring
	sampler    monitoring.Sampler
	aggregator *monitoring.Aggregator

	// Upstream clients
	claudeClient    *claude.Client
	functionsClient *functions.Client

	// Service layer
	executionService  *service.ExecutionService
	completionService *service.CompletionService
	taskService       *service.TaskService

	// Plugins
	plugins    *plugin.Registry
	brainstorm *brainstorm.Plugin
	creativity *creativity.Plugin

	// Handler layer
	completionHandler *handler.CompletionHandler
	hybridHandler     *handler.HybridHandler
	taskHandler       *handler.TaskHandler
	systemHandler     *handler.SystemHandler

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// MCP server
	mcpServer *server.MCPServer

	// Background tasks
	jobsManager *jobs.Manager

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan error

	// Background task cleanup functions
	cleanupFuncs []func()
}

type initStep struct {
	name string
	fn   func() error
}

// NewApplication creates a new Application instance
func NewApplication(m mode, configPath string) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		mode:         m,
		configPath:   configPath,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan error, 1),
		cleanupFuncs: make([]func(), 0),
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	steps := []initStep{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"Redis", app.initRedis},
		{"Storage", app.initStorage},
		{"Monitoring", app.initMonitoring},
		{"Upstream Clients", app.initClients},
		{"Service Layer", app.initServices},
		{"Task Queue", app.initTaskQueue},
		{"Plugins", app.initPlugins},
		{"Background Tasks", app.initJobs},
	}
	switch app.mode {
	case modeServe:
		steps = append(steps,
			initStep{"Handler Layer", app.initHandlers},
			initStep{"HTTP Server", app.initHTTPServer},
		)
	case modeMCP:
		steps = append(steps, initStep{"MCP Server", app.initMCPServer})
	}

	for _, step := range steps {
		logger.InfoCtx(app.ctx, "Initializing %s...", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.InfoCtx(app.ctx, "%s initialized successfully", step.name)
	}

	logger.InfoCtx(app.ctx, "Application initialization completed")
	return nil
}

// Start starts all application components
func (app *Application) Start() error {
	logger.InfoCtx(app.ctx, "Starting application components...")

	// 1. Start background tasks
	if app.jobsManager != nil {
		logger.InfoCtx(app.ctx, "Starting background task manager")
		app.jobsManager.Start()
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.jobsManager.Wait()
		}()
	}

	// 2. Start the request surface
	switch app.mode {
	case modeServe:
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			logger.InfoCtx(app.ctx, "HTTP server listening on: %s", app.httpServer.Addr)
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.stop(fmt.Errorf("HTTP server error: %w", err))
			}
		}()
	case modeMCP:
		// The stdio loop does not watch ctx; it returns when stdin closes.
		go func() {
			logger.InfoCtx(app.ctx, "MCP server serving on stdio")
			app.stop(mcpserver.Serve(app.mcpServer))
		}()
	}

	logger.InfoCtx(app.ctx, "All components started successfully")
	return nil
}

// Done reports when the request surface stops by itself
func (app *Application) Done() <-chan error {
	return app.done
}

func (app *Application) stop(err error) {
	select {
	case app.done <- err:
	default:
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	logger.InfoCtx(app.ctx, "Starting graceful shutdown (timeout: %v)...", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 1. Cancel all background tasks
	logger.InfoCtx(app.ctx, "Canceling background tasks...")
	app.cancel()
	if app.jobsManager != nil {
		app.jobsManager.Stop()
	}

	// 2. Stop HTTP server (stop accepting new requests)
	if app.httpServer != nil {
		logger.InfoCtx(app.ctx, "Shutting down HTTP server...")
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorCtx(app.ctx, "HTTP server shutdown error: %v", err)
		}
	}

	// 3. Wait for all background tasks to complete
	logger.InfoCtx(app.ctx, "Waiting for background tasks to complete...")
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoCtx(app.ctx, "All background tasks completed")
	case <-shutdownCtx.Done():
		logger.WarnCtx(app.ctx, "Shutdown timeout, some tasks may not have completed")
	}

	// 4. Execute all cleanup functions (in reverse registration order)
	logger.InfoCtx(app.ctx, "Executing cleanup functions...")
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}

	logger.InfoCtx(app.ctx, "Graceful shutdown completed")
	_ = logger.Sync()
	return nil
}

// registerCleanup registers cleanup function
func (app *Application) registerCleanup(cleanup func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, cleanup)
}
