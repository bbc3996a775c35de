package xgateway

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Listen)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 100, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Metrics.WindowSize)
	assert.Equal(t, 10*time.Minute, cfg.Sweep.Every)

	gen := cfg.RateLimit.Routes[RouteGenerate]
	assert.Equal(t, 5.0, gen.RatePerMinute)
	assert.Equal(t, 2, gen.Burst)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	raw := []byte(`
listen: ":9090"
cache:
  capacity: 500
  ttl: 30m
rate_limit:
  routes:
    /generate:
      rate_per_minute: 10
      burst: 4
log:
  level: debug
`)
	cfg, err := LoadConfig(raw, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10.0, cfg.RateLimit.Routes[RouteGenerate].RatePerMinute)

	// 未出现的键保留默认值
	assert.Equal(t, 1000, cfg.Metrics.WindowSize)
	assert.Equal(t, 10*time.Minute, cfg.Sweep.Every)
}

func TestLoadConfig_JSON(t *testing.T) {
	raw := []byte(`{"listen": "127.0.0.1:8081", "sweep": {"every": "5m"}}`)
	cfg, err := LoadConfig(raw, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", cfg.Listen)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.Every)
}

func TestLoadConfig_EmptyDataIsDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	_, err := LoadConfig([]byte(`cache: {capacity: 0}`), FormatYAML)
	assert.Error(t, err)

	_, err = LoadConfig([]byte(`auth: {enabled: true}`), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig([]byte(`listen: ""`), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_UnsupportedFormat(t *testing.T) {
	_, err := LoadConfig([]byte("x = 1"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "gategw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`listen: ":7070"`), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)

	_, err = LoadConfigFile(filepath.Join(dir, "gategw.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
