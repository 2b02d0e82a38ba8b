package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FEED_SOURCE", "feed.zip")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "feed.zip", cfg.FeedSource)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.StorageDir)
}

func TestLoadAllowsEmptyFeedSource(t *testing.T) {
	// The feed flag merges in after Load, so an empty source is not
	// an error at this stage.
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.FeedSource)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEED_URL", "https://example.com/gtfs.zip")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORAGE_DIR", "/tmp/cache")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "https://example.com/gtfs.zip", cfg.FeedSource)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/cache", cfg.StorageDir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":7000"
feed_source: city.zip
log_level: warn
allowed_origins:
  - https://dash.example
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "city.zip", cfg.FeedSource)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"https://dash.example"}, cfg.AllowedOrigins)

	// Environment still wins over the file.
	t.Setenv("LISTEN_ADDR", ":7070")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("FEED_SOURCE", "feed.zip")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := config.Load("")
	require.Error(t, err)
}
