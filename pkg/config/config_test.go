package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
claude:
  api_key: sk-file
  max_tokens: 1024
hybrid:
  cpu_threshold: 70
plugins:
  enabled: [brainstorm]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("LOCAL_MEMORY_THRESHOLD", "60")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.Claude.APIKey)
	assert.Equal(t, 1024, cfg.Claude.MaxTokens)
	assert.Equal(t, 70.0, cfg.Hybrid.CPUThreshold)
	assert.Equal(t, 60.0, cfg.Hybrid.MemoryThreshold)
	assert.Equal(t, 90.0, cfg.Hybrid.GPUThreshold)
	assert.True(t, cfg.IsPluginEnabled("brainstorm"))
	assert.False(t, cfg.IsPluginEnabled("mindmap"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Hybrid.MaxLocalDuration)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, DefaultPlugins, cfg.Plugins.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.Claude.APIKey = "" }, wantErr: true},
		{name: "placeholder api key", mutate: func(c *Config) { c.Claude.APIKey = "your-anthropic-api-key" }, wantErr: true},
		{name: "negative temperature", mutate: func(c *Config) { c.Claude.Temperature = -0.1 }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *Config) { c.Claude.MaxTokens = 0 }, wantErr: true},
		{name: "too many max tokens", mutate: func(c *Config) { c.Claude.MaxTokens = 200001 }, wantErr: true},
		{name: "threshold above 100", mutate: func(c *Config) { c.Hybrid.CPUThreshold = 101 }, wantErr: true},
		{name: "zero duration", mutate: func(c *Config) { c.Hybrid.MaxLocalDuration = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Store.Driver = "oracle" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Claude.APIKey = "sk-test"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv_EnabledPlugins(t *testing.T) {
	cfg := Default()
	env := map[string]string{"ENABLED_PLUGINS": " vibe_coder , ,mindmap"}
	applyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, []string{"vibe_coder", "mindmap"}, cfg.Plugins.Enabled)
}

func TestWriteDefault(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path, false))

	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))

	// placeholder key must not validate
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestRead_SkipsValidation(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Claude.APIKey)
	assert.Equal(t, 80.0, cfg.Hybrid.CPUThreshold)
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config/config.yaml", Path())

	t.Setenv("CONFIG_PATH", "/etc/hybridmcp.yaml")
	assert.Equal(t, "/etc/hybridmcp.yaml", Path())
}
