package handler

import (
	"context"
	"net/http"
	"time"

	"hybridmcp/internal/plugin"
	"hybridmcp/pkg/config"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker reports upstream model API availability
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Pinger reports shared store availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse health check result
type HealthResponse struct {
	Status        string  `json:"status"` // healthy, degraded
	Timestamp     float64 `json:"timestamp"`
	Version       string  `json:"version"`
	ClaudeStatus  bool    `json:"claude_status"`
	RedisStatus   *bool   `json:"redis_status,omitempty"` // absent when Redis is not configured
	PluginsLoaded int     `json:"plugins_loaded"`
}

// SettingsResponse server settings without secrets
type SettingsResponse struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Mode           string   `json:"mode"`
	ClaudeModel    string   `json:"claude_model"`
	MaxTokens      int      `json:"max_tokens"`
	Temperature    float64  `json:"temperature"`
	EnabledPlugins []string `json:"enabled_plugins"`
	LogLevel       string   `json:"log_level"`
	HybridEnabled  bool     `json:"hybrid_enabled"`
	RemoteEnabled  bool     `json:"remote_enabled"`
	QueueEnabled   bool     `json:"queue_enabled"`
}

// SystemHandler handles health, plugin and settings endpoints
type SystemHandler struct {
	cfg     *config.Config
	checker HealthChecker
	plugins *plugin.Registry
	version string
	redis   Pinger
}

// NewSystemHandler creates system handler
func NewSystemHandler(cfg *config.Config, checker HealthChecker, plugins *plugin.Registry, version string) *SystemHandler {
	return &SystemHandler{
		cfg:     cfg,
		checker: checker,
		plugins: plugins,
		version: version,
	}
}

// SetRedis adds a Redis check to the health endpoint
func (h *SystemHandler) SetRedis(p Pinger) {
	h.redis = p
}

// Health checks service health
// @Summary Health check
// @Description Reports degraded when the model API or Redis is unreachable
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	claudeUp := h.checker != nil && h.checker.HealthCheck(ctx)
	status := "healthy"
	if !claudeUp {
		status = "degraded"
	}

	var redisStatus *bool
	if h.redis != nil {
		up := h.redis.Ping(ctx) == nil
		if !up {
			status = "degraded"
		}
		redisStatus = &up
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:        status,
		Timestamp:     float64(time.Now().UnixMilli()) / 1000,
		Version:       h.version,
		ClaudeStatus:  claudeUp,
		RedisStatus:   redisStatus,
		PluginsLoaded: len(h.plugins.All()),
	})
}

// Plugins lists registered plugins
// @Summary List plugins
// @Description Metadata of every registered plugin and whether it is loaded
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/plugins [get]
func (h *SystemHandler) Plugins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plugins": h.plugins.Info()})
}

// Settings gets server settings
// @Summary Get settings
// @Description Server settings, excluding keys and passwords
// @Tags system
// @Produce json
// @Success 200 {object} SettingsResponse
// @Router /v1/settings [get]
func (h *SystemHandler) Settings(c *gin.Context) {
	cfg := h.cfg
	c.JSON(http.StatusOK, SettingsResponse{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Mode:           cfg.Server.Mode,
		ClaudeModel:    cfg.Claude.Model,
		MaxTokens:      cfg.Claude.MaxTokens,
		Temperature:    cfg.Claude.Temperature,
		EnabledPlugins: cfg.Plugins.Enabled,
		LogLevel:       cfg.Logger.Level,
		HybridEnabled:  cfg.Hybrid.Enabled,
		RemoteEnabled:  cfg.Functions.Enabled,
		QueueEnabled:   cfg.Queue.Enabled,
	})
}
