package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// ErrMissingAPIKey is returned when no Anthropic API key is configured.
var ErrMissingAPIKey = errors.New("anthropic api key must be provided")

// Config global configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Claude       ClaudeConfig       `yaml:"claude"`
	Hybrid       HybridConfig       `yaml:"hybrid"`
	Functions    FunctionsConfig    `yaml:"functions"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Redis        RedisConfig        `yaml:"redis"`
	Store        StoreConfig        `yaml:"store"`
	Queue        QueueConfig        `yaml:"queue"`
	Plugins      PluginsConfig      `yaml:"plugins"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Notification NotificationConfig `yaml:"notification"`
	Logger       LoggerConfig       `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Mode        string   `yaml:"mode"`    // debug, release
	APIKey      string   `yaml:"api_key"` // optional, if empty auth is disabled
	CORSOrigins []string `yaml:"cors_origins"`
}

// ClaudeConfig Anthropic Messages API configuration
type ClaudeConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"` // seconds
}

// HybridConfig execution router configuration
type HybridConfig struct {
	Enabled           bool    `yaml:"enabled"`
	CPUThreshold      float64 `yaml:"cpu_threshold"`    // percent
	MemoryThreshold   float64 `yaml:"memory_threshold"` // percent
	GPUThreshold      float64 `yaml:"gpu_threshold"`    // percent
	MaxLocalDuration  int     `yaml:"max_local_duration"` // seconds
	FallbackOnFailure bool    `yaml:"fallback_on_failure"`
	CostEstimation    bool    `yaml:"cost_estimation"`
}

// FunctionsConfig remote (Azure Functions) execution configuration
type FunctionsConfig struct {
	Enabled     bool              `yaml:"enabled"`
	BaseURL     string            `yaml:"base_url"` // overrides https://{app}.azurewebsites.net
	FunctionKey string            `yaml:"function_key"`
	Timeout     int               `yaml:"timeout"` // seconds
	Apps        map[string]string `yaml:"apps"`    // module category -> function app
}

// MonitoringConfig resource sampling configuration
type MonitoringConfig struct {
	GPUEnabled     bool `yaml:"gpu_enabled"`
	SampleInterval int  `yaml:"sample_interval"` // seconds, background sampling
	CPUWindowMs    int  `yaml:"cpu_window_ms"`   // cpu percent measurement window
	HistorySize    int  `yaml:"history_size"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StoreConfig execution log storage
type StoreConfig struct {
	Driver    string `yaml:"driver"` // sqlite, mysql, postgres, none
	DSN       string `yaml:"dsn"`
	Retention int    `yaml:"retention"` // hours
}

// QueueConfig async task queue configuration
type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`
	Concurrency int  `yaml:"concurrency"`
	MaxRetry    int  `yaml:"max_retry"`
	TaskTimeout int  `yaml:"task_timeout"` // seconds
	ResultTTL   int  `yaml:"result_ttl"`   // seconds
}

// PluginsConfig plugin configuration
type PluginsConfig struct {
	Enabled    []string `yaml:"enabled"`
	SessionTTL int      `yaml:"session_ttl"` // seconds
}

// RateLimitConfig per-client rate limiting
type RateLimitConfig struct {
	Requests int `yaml:"requests"`
	Window   int `yaml:"window"` // seconds
}

// NotificationConfig failure alert webhook. Empty URL disables alerts.
type NotificationConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Format     string `yaml:"format"`   // feishu, json
	Cooldown   int    `yaml:"cooldown"` // seconds between alerts for the same task
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// DefaultPlugins lists the plugins enabled when none are configured.
var DefaultPlugins = []string{"vibe_coder", "brainstorm", "perspective_shift", "mindmap", "creativity_surge"}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8000,
			Mode:        "release",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		},
		Claude: ClaudeConfig{
			BaseURL:     "https://api.anthropic.com",
			Model:       "claude-3-7-sonnet-latest",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     120,
		},
		Hybrid: HybridConfig{
			Enabled:           true,
			CPUThreshold:      80,
			MemoryThreshold:   85,
			GPUThreshold:      90,
			MaxLocalDuration:  300,
			FallbackOnFailure: true,
			CostEstimation:    true,
		},
		Functions: FunctionsConfig{
			Timeout: 300,
			Apps: map[string]string{
				"ideation":      "mcp-ideation-functions",
				"visual":        "mcp-visual-functions",
				"animation":     "mcp-animation-functions",
				"audio":         "mcp-audio-functions",
				"voice":         "mcp-voice-functions",
				"orchestration": "mcp-orchestration-functions",
			},
		},
		Monitoring: MonitoringConfig{
			SampleInterval: 30,
			CPUWindowMs:    200,
			HistorySize:    100,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Store: StoreConfig{
			Driver:    "sqlite",
			DSN:       "data/executions.db",
			Retention: 24 * 7,
		},
		Queue: QueueConfig{
			Concurrency: 4,
			MaxRetry:    1,
			TaskTimeout: 900,
			ResultTTL:   3600,
		},
		Plugins: PluginsConfig{
			Enabled:    append([]string(nil), DefaultPlugins...),
			SessionTTL: 3600,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   60,
		},
		Notification: NotificationConfig{
			Format:   "json",
			Cooldown: 300,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Output: "console",
		},
	}
}

// Path returns the configuration file path, CONFIG_PATH or config/config.yaml
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

// Init initializes configuration
func Init() error {
	cfg, err := Load(Path())
	if err != nil {
		return err
	}

	GlobalConfig = cfg
	return nil
}

// Load reads the configuration at path and validates it
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads the YAML file at path on top of the defaults and applies
// environment overrides without validating. A missing file is not an
// error: defaults plus environment are used.
func Read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg, os.LookupEnv)
	applyDefaults(cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				*dst = f
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	str("HOST", &cfg.Server.Host)
	num("PORT", &cfg.Server.Port)
	str("SERVER_API_KEY", &cfg.Server.APIKey)
	str("ANTHROPIC_API_KEY", &cfg.Claude.APIKey)
	str("ANTHROPIC_BASE_URL", &cfg.Claude.BaseURL)
	str("CLAUDE_MODEL", &cfg.Claude.Model)
	num("MAX_TOKENS", &cfg.Claude.MaxTokens)
	float("TEMPERATURE", &cfg.Claude.Temperature)
	boolean("HYBRID_COMPUTING_ENABLED", &cfg.Hybrid.Enabled)
	float("LOCAL_CPU_THRESHOLD", &cfg.Hybrid.CPUThreshold)
	float("LOCAL_MEMORY_THRESHOLD", &cfg.Hybrid.MemoryThreshold)
	float("LOCAL_GPU_THRESHOLD", &cfg.Hybrid.GPUThreshold)
	num("MAX_LOCAL_DURATION", &cfg.Hybrid.MaxLocalDuration)
	boolean("AZURE_ENABLED", &cfg.Functions.Enabled)
	str("AZURE_FUNCTIONS_BASE_URL", &cfg.Functions.BaseURL)
	str("AZURE_FUNCTIONS_KEY", &cfg.Functions.FunctionKey)
	boolean("GPU_ENABLED", &cfg.Monitoring.GPUEnabled)
	boolean("REDIS_ENABLED", &cfg.Redis.Enabled)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_DSN", &cfg.Store.DSN)
	str("NOTIFICATION_WEBHOOK_URL", &cfg.Notification.WebhookURL)
	str("NOTIFICATION_FORMAT", &cfg.Notification.Format)
	str("LOG_LEVEL", &cfg.Logger.Level)
	str("LOG_FILE", &cfg.Logger.File.Path)
	num("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	num("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	if v, ok := lookup("ENABLED_PLUGINS"); ok && strings.TrimSpace(v) != "" {
		parts := strings.Split(v, ",")
		plugins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				plugins = append(plugins, p)
			}
		}
		cfg.Plugins.Enabled = plugins
	}
}

// applyDefaults fills zero values that must never be zero at runtime.
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Claude.BaseURL == "" {
		cfg.Claude.BaseURL = defaults.Claude.BaseURL
	}
	if cfg.Claude.Model == "" {
		cfg.Claude.Model = defaults.Claude.Model
	}
	if cfg.Claude.Timeout <= 0 {
		cfg.Claude.Timeout = defaults.Claude.Timeout
	}
	if cfg.Functions.Timeout <= 0 {
		cfg.Functions.Timeout = defaults.Functions.Timeout
	}
	if cfg.Monitoring.CPUWindowMs <= 0 {
		cfg.Monitoring.CPUWindowMs = defaults.Monitoring.CPUWindowMs
	}
	if cfg.Monitoring.HistorySize <= 0 {
		cfg.Monitoring.HistorySize = defaults.Monitoring.HistorySize
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = defaults.Queue.Concurrency
	}
	if cfg.Queue.ResultTTL <= 0 {
		cfg.Queue.ResultTTL = defaults.Queue.ResultTTL
	}
	if cfg.Plugins.SessionTTL <= 0 {
		cfg.Plugins.SessionTTL = defaults.Plugins.SessionTTL
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = defaults.RateLimit.Window
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	cfg.Logger.Level = strings.ToLower(cfg.Logger.Level)
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	key := strings.TrimSpace(c.Claude.APIKey)
	if key == "" || key == "your-anthropic-api-key" {
		return ErrMissingAPIKey
	}
	if math.IsNaN(c.Claude.Temperature) || c.Claude.Temperature < 0 || c.Claude.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %v", c.Claude.Temperature)
	}
	if c.Claude.MaxTokens < 1 || c.Claude.MaxTokens > 200000 {
		return fmt.Errorf("max tokens must be between 1 and 200000, got %d", c.Claude.MaxTokens)
	}
	for name, v := range map[string]float64{
		"cpu_threshold":    c.Hybrid.CPUThreshold,
		"memory_threshold": c.Hybrid.MemoryThreshold,
		"gpu_threshold":    c.Hybrid.GPUThreshold,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("hybrid.%s must be a percentage in [0,100], got %v", name, v)
		}
	}
	if c.Hybrid.MaxLocalDuration <= 0 {
		return fmt.Errorf("hybrid.max_local_duration must be positive, got %d", c.Hybrid.MaxLocalDuration)
	}
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", c.Logger.Level)
	}
	switch c.Store.Driver {
	case "sqlite", "mysql", "postgres", "none":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	switch c.Notification.Format {
	case "", "json", "feishu":
	default:
		return fmt.Errorf("notification format must be json or feishu, got %q", c.Notification.Format)
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must not be negative, got %d", c.RateLimit.Requests)
	}
	return nil
}

// IsPluginEnabled reports whether the plugin name is in the enabled list.
func (c *Config) IsPluginEnabled(name string) bool {
	for _, p := range c.Plugins.Enabled {
		if p == name {
			return true
		}
	}
	return false
}

// LocalDurationLimit returns the duration ceiling for local execution.
func (h HybridConfig) LocalDurationLimit() time.Duration {
	return time.Duration(h.MaxLocalDuration) * time.Second
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WriteDefault writes a commented default configuration file to path.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if idx := strings.LastIndex(path, "/"); idx > 0 {
		if err := os.MkdirAll(path[:idx], 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	cfg := Default()
	cfg.Claude.APIKey = "your-anthropic-api-key"
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	header := "# hybridmcp configuration\n# Set claude.api_key (or ANTHROPIC_API_KEY) before starting the server.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}
