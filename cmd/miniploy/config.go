package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all CLI process configuration. Project-level settings live
// in miniploy.yaml; this covers logging, HTTP bounds and credential storage.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Deploy      DeployConfig      `mapstructure:"deploy"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig holds platform API client configuration.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DeployConfig bounds the deploy protocol.
type DeployConfig struct {
	// PollInterval is the wait between status polls.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// MaxPolls bounds the poll loop per deployment.
	MaxPolls int `mapstructure:"max_polls"`

	// Timeout bounds one whole deployment.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries is the attempt bound for rate-limited and transient
	// failures of a single remote call.
	MaxRetries int `mapstructure:"max_retries"`
}

// CredentialsConfig selects where platform tokens are stored.
type CredentialsConfig struct {
	// Backend is "file" (.env-style file) or "keyring" (OS keyring).
	Backend string `mapstructure:"backend"`

	// File is the token file path used by the file backend.
	File string `mapstructure:"file"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("deploy.poll_interval", "2s")
	v.SetDefault("deploy.max_polls", 30)
	v.SetDefault("deploy.timeout", "5m")
	v.SetDefault("deploy.max_retries", 4)
	v.SetDefault("credentials.backend", "file")
	v.SetDefault("credentials.file", ".env")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if the file is present but invalid.
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("MINIPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. Logs
// go to stderr so command output stays clean.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
