package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Deploy.PollInterval)
	assert.Equal(t, 30, cfg.Deploy.MaxPolls)
	assert.Equal(t, 5*time.Minute, cfg.Deploy.Timeout)
	assert.Equal(t, 4, cfg.Deploy.MaxRetries)
	assert.Equal(t, "file", cfg.Credentials.Backend)
	assert.Equal(t, ".env", cfg.Credentials.File)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
  format: json
deploy:
  max_polls: 10
credentials:
  backend: keyring
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Deploy.MaxPolls)
	assert.Equal(t, "keyring", cfg.Credentials.Backend)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.Deploy.PollInterval)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MINIPLOY_LOG_LEVEL", "warn")
	t.Setenv("MINIPLOY_DEPLOY_MAX_POLLS", "7")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Deploy.MaxPolls)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&Config{Log: LogConfig{Level: "debug", Format: "json"}})
	assert.NotNil(t, logger)

	logger = SetupLogger(&Config{Log: LogConfig{Level: "bogus", Format: "text"}})
	assert.NotNil(t, logger)
}
