package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"hybridmcp/app/handler"
	"hybridmcp/app/router"
	"hybridmcp/internal/mcpserver"
	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/brainstorm"
	"hybridmcp/internal/plugin/creativity"
	"hybridmcp/internal/plugin/mindmap"
	"hybridmcp/internal/plugin/perspective"
	"hybridmcp/internal/plugin/vibecoder"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/notification"
	"hybridmcp/pkg/queue"
	"hybridmcp/pkg/store/memory"
	redisstore "hybridmcp/pkg/store/redis"
	"hybridmcp/pkg/store/sqlite"
	"hybridmcp/pkg/store/sqlstore"

	"github.com/gin-gonic/gin"
)

// samplerCacheAge bounds how stale a snapshot may be when reused for routing
const samplerCacheAge = 2 * time.Second

// initConfig initializes configuration
func (app *Application) initConfig() error {
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	config.GlobalConfig = cfg
	app.config = cfg
	return nil
}

// initLogger initializes logging. In MCP mode stdout carries the protocol,
// so console output goes to stderr.
func (app *Application) initLogger() error {
	out := os.Stdout
	if app.mode == modeMCP {
		out = os.Stderr
	}
	if err := logger.Setup(app.config.Logger, out); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.InfoCtx(app.ctx, "Logging system has been closed")
		_ = logger.Sync()
	})
	return nil
}

// initRedis initializes Redis when enabled
func (app *Application) initRedis() error {
	if !app.config.Redis.Enabled {
		logger.InfoCtx(app.ctx, "Redis disabled, using in-memory stores")
		return nil
	}

	client, err := redisstore.NewRedisClient(app.ctx, app.config.Redis)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})
	return nil
}

// initStorage initializes the execution log, snapshot history, plugin
// sessions and rate limiter
func (app *Application) initStorage() error {
	store, err := newExecutionStore(app.config.Store)
	if err != nil {
		return err
	}
	if store != nil {
		app.executionStore = store
		app.registerCleanup(func() {
			store.Close()
			logger.InfoCtx(app.ctx, "Execution store has been closed")
		})
	}

	sessionTTL := time.Duration(app.config.Plugins.SessionTTL) * time.Second
	limit, window := app.config.RateLimit.Requests, time.Duration(app.config.RateLimit.Window)*time.Second

	if app.redisClient != nil {
		app.history = redisstore.NewHistoryRepository(app.redisClient, app.config.Monitoring.HistorySize)
		app.sessions = redisstore.NewSessionRepository(app.redisClient, sessionTTL)
		if limit > 0 {
			app.rateLimiter = redisstore.NewRateLimiter(app.redisClient, limit, window)
		}
		return nil
	}

	app.history = memory.NewHistory(app.config.Monitoring.HistorySize)
	app.sessions = memory.NewSessionStore(sessionTTL)
	if limit > 0 {
		app.rateLimiter = memory.NewRateLimiter(limit, window)
	}
	return nil
}

// newExecutionStore opens the execution log for the configured driver.
// It returns nil for driver "none".
func newExecutionStore(cfg config.StoreConfig) (interfaces.ExecutionStore, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		return sqlite.New(cfg.DSN)
	case "mysql", "postgres":
		ds, err := sqlstore.NewDatastore(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return sqlstore.NewExecutionRepository(ds), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// initMonitoring initializes resource sampling
func (app *Application) initMonitoring() error {
	app.sampler = monitoring.NewCachingSampler(newSystemSampler(app.config.Monitoring), samplerCacheAge)
	app.aggregator = monitoring.NewAggregator(app.sampler, app.history)
	return nil
}

func newSystemSampler(cfg config.MonitoringConfig) *monitoring.SystemSampler {
	var gpu monitoring.GPUReader
	if cfg.GPUEnabled {
		gpu = monitoring.NvidiaSMI
	}
	return monitoring.NewSystemSampler(time.Duration(cfg.CPUWindowMs)*time.Millisecond, gpu)
}

// newHybridRouter builds the execution router from configuration. Remote
// execution is available only when both hybrid routing and Azure Functions
// are enabled.
func newHybridRouter(cfg *config.Config) (*hybrid.Router, error) {
	thresholds := hybrid.Thresholds{
		CPUPercent:    cfg.Hybrid.CPUThreshold,
		MemoryPercent: cfg.Hybrid.MemoryThreshold,
		GPUPercent:    cfg.Hybrid.GPUThreshold,
		MaxDuration:   cfg.Hybrid.LocalDurationLimit(),
	}

	opts := []hybrid.Option{hybrid.WithRemoteEnabled(cfg.Hybrid.Enabled && cfg.Functions.Enabled)}
	if cfg.Hybrid.CostEstimation {
		opts = append(opts, hybrid.WithCostModel(hybrid.DefaultCostModel()))
	}
	return hybrid.NewRouter(thresholds, opts...)
}

// initClients initializes the Claude and Azure Functions clients
func (app *Application) initClients() error {
	app.claudeClient = claude.NewClient(app.config.Claude)
	app.functionsClient = functions.NewClient(app.config.Functions)
	if !app.functionsClient.Enabled() {
		logger.InfoCtx(app.ctx, "Azure Functions disabled, all work runs locally")
	}
	return nil
}

// initServices initializes the service layer
func (app *Application) initServices() error {
	router, err := newHybridRouter(app.config)
	if err != nil {
		return err
	}

	app.executionService = service.NewExecutionService(
		router,
		app.sampler,
		app.aggregator,
		app.functionsClient,
		app.executionStore,
		app.config.Hybrid.FallbackOnFailure,
	)
	if notifier := notification.NewWebhookNotifier(app.config.Notification); notifier.Enabled() {
		app.executionService.SetNotifier(notifier)
		logger.InfoCtx(app.ctx, "Failure alerts enabled (format: %s)", app.config.Notification.Format)
	}
	app.completionService = service.NewCompletionService(app.executionService, app.claudeClient)
	app.taskService = service.NewTaskService(app.completionService)
	return nil
}

// initTaskQueue initializes the async task queue
func (app *Application) initTaskQueue() error {
	var results interfaces.TaskResultStore = memory.NewTaskResultStore()
	if app.redisClient != nil {
		results = redisstore.NewTaskResultRepository(app.redisClient)
	}

	q, err := queue.NewTaskQueue(app.config, results, app.taskService)
	if err != nil {
		return err
	}
	if q == nil {
		logger.InfoCtx(app.ctx, "Async task queue disabled")
		return nil
	}

	app.taskQueue = q
	app.taskService.SetQueue(q)
	app.registerCleanup(func() {
		q.Close()
		logger.InfoCtx(app.ctx, "Task queue has been closed")
	})
	return nil
}

// initPlugins registers every plugin and loads the enabled ones
func (app *Application) initPlugins() error {
	deps := plugin.Deps{
		Exec:     app.executionService,
		Client:   app.claudeClient,
		Sessions: app.sessions,
	}
	app.brainstorm = brainstorm.New(deps)
	app.creativity = creativity.New(deps)

	registry := plugin.NewRegistry()
	for _, p := range []plugin.Plugin{
		vibecoder.New(deps),
		app.brainstorm,
		perspective.New(deps),
		mindmap.New(deps),
		app.creativity,
	} {
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	loaded := registry.Load(app.ctx, app.config.Plugins.Enabled)
	logger.InfoCtx(app.ctx, "Loaded plugins: %v", loaded)

	app.plugins = registry
	app.registerCleanup(func() {
		registry.Shutdown(app.ctx)
		logger.InfoCtx(app.ctx, "Plugins have been shut down")
	})
	return nil
}

// initHandlers initializes the handler layer
func (app *Application) initHandlers() error {
	app.completionHandler = handler.NewCompletionHandler(app.completionService)
	app.hybridHandler = handler.NewHybridHandler(app.executionService)
	app.taskHandler = handler.NewTaskHandler(app.taskService)
	app.systemHandler = handler.NewSystemHandler(app.config, app.claudeClient, app.plugins, version)
	if app.redisClient != nil {
		app.systemHandler.SetRedis(app.redisClient)
	}
	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()

	r := router.NewRouter(
		app.completionHandler,
		app.hybridHandler,
		app.taskHandler,
		app.systemHandler,
		app.plugins,
		router.Options{
			APIKey:      app.config.Server.APIKey,
			CORSOrigins: app.config.Server.CORSOrigins,
			RateLimiter: app.rateLimiter,
		},
	)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:              app.config.Server.Address(),
		Handler:           app.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// initMCPServer initializes the MCP stdio server
func (app *Application) initMCPServer() error {
	deps := mcpserver.Deps{
		Completion: app.completionService,
		Exec:       app.executionService,
	}
	if app.config.IsPluginEnabled(brainstorm.Name) {
		deps.Brainstorm = app.brainstorm
	}
	if app.config.IsPluginEnabled(creativity.Name) {
		deps.Creativity = app.creativity
	}
	app.mcpServer = mcpserver.New(deps, version)
	return nil
}
