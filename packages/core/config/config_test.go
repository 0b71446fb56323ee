package config

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
	assert.True(t, cfg.IsDefault())
	assert.True(t, cfg.GetFollowRedirects())
	assert.False(t, cfg.GetFailFast())
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, []string{"console"}, cfg.Reporters)
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hitassert.yaml"), []byte(`
baseUrl: http://localhost:8080
timeout: 5000
rateLimit: 20
failFast: true
logLevel: debug
history: sqlite:history.db
reporters: [console, junit]
environments:
  staging:
    baseUrl: http://staging
    retries: 2
`), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 20.0, cfg.RateLimit)
	assert.True(t, cfg.GetFailFast())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "sqlite:history.db", cfg.History)
	assert.Equal(t, []string{"console", "junit"}, cfg.Reporters)
	assert.Equal(t, "http://staging", cfg.Environments["staging"]["baseUrl"])
	assert.Equal(t, 2, cfg.Environments["staging"]["retries"])
	assert.Equal(t, 5, cfg.Concurrency)
}

func TestFindAndLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hitassert.config.json"),
		[]byte(`{"parallel": true, "concurrency": 8, "followRedirects": false}`), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.GetParallel())
	assert.Equal(t, 8, cfg.Concurrency)
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, 30000, cfg.Timeout)
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "parsing config")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "application/json"}

	merged := base.Merge(&Config{
		Timeout:  1000,
		Bail:     BoolPtr(true),
		Headers:  map[string]string{"X-Trace": "1"},
		LogLevel: "info",
	})

	assert.Equal(t, 1000, merged.Timeout)
	assert.True(t, merged.GetBail())
	assert.Equal(t, "info", merged.LogLevel)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "1"}, merged.Headers)
	assert.Len(t, base.Headers, 1, "merge must not modify the receiver")
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTripsThroughYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitassert.yaml")
	cfg := DefaultConfig()
	cfg.BaseURL = "http://example.test"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", loaded.BaseURL)
	assert.False(t, loaded.IsDefault())
}
