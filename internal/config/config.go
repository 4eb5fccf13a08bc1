// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrAssetAPIBaseURLRequired is returned when ASSET_API_BASE_URL is not set.
	ErrAssetAPIBaseURLRequired = errors.New("config: ASSET_API_BASE_URL is required")
	// ErrAssetPublicBaseURLRequired is returned when ASSET_PUBLIC_BASE_URL is not set.
	ErrAssetPublicBaseURLRequired = errors.New("config: ASSET_PUBLIC_BASE_URL is required")
	// ErrGenAPIBaseURLRequired is returned when GEN_API_BASE_URL is not set.
	ErrGenAPIBaseURLRequired = errors.New("config: GEN_API_BASE_URL is required")
	// ErrGenUserIDRequired is returned when GEN_USER_ID is not set.
	ErrGenUserIDRequired = errors.New("config: GEN_USER_ID is required")
	// ErrInvalidJobType is returned when GEN_JOB_TYPE is not image or video.
	ErrInvalidJobType = errors.New("config: GEN_JOB_TYPE must be image or video")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Asset service settings
	AssetAPIBaseURL    string `env:"ASSET_API_BASE_URL, required" json:"asset_api_base_url"`
	AssetPublicBaseURL string `env:"ASSET_PUBLIC_BASE_URL, required" json:"asset_public_base_url"`
	ProjectID          string `env:"PROJECT_ID, default=dressr" json:"project_id"`

	// Generation service settings
	GenAPIBaseURL   string `env:"GEN_API_BASE_URL, required" json:"gen_api_base_url"`
	GenUserID       string `env:"GEN_USER_ID, required" json:"-"` // Masked in JSON
	GenJobType      string `env:"GEN_JOB_TYPE, default=video" json:"gen_job_type"`
	EffectID        string `env:"EFFECT_ID, default=halloween" json:"effect_id"`
	Model           string `env:"MODEL, default=video-effects" json:"model"`
	RemoveWatermark bool   `env:"REMOVE_WATERMARK, default=true" json:"remove_watermark"`
	IsPrivate       bool   `env:"IS_PRIVATE, default=true" json:"is_private"`

	// Polling settings
	PollInterval time.Duration `env:"POLL_INTERVAL, default=2s" json:"poll_interval"`
	MaxPolls     int           `env:"MAX_POLLS, default=60" json:"max_polls"`

	// Per-call timeout for upload, submit, and status requests
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT, default=30s" json:"http_timeout"`

	// Download settings
	DownloadDir    string `env:"DOWNLOAD_DIR, default=/tmp/effects-playground" json:"download_dir"`
	DownloadPrefix string `env:"DOWNLOAD_PREFIX, default=halloween_result" json:"download_prefix"`

	// Optional S3 asset backend; when set, uploads go directly to S3
	// instead of the signed-URL asset service.
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if the S3 asset backend is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		switch {
		case strings.Contains(err.Error(), "ASSET_API_BASE_URL"):
			return nil, ErrAssetAPIBaseURLRequired
		case strings.Contains(err.Error(), "ASSET_PUBLIC_BASE_URL"):
			return nil, ErrAssetPublicBaseURLRequired
		case strings.Contains(err.Error(), "GEN_API_BASE_URL"):
			return nil, ErrGenAPIBaseURLRequired
		case strings.Contains(err.Error(), "GEN_USER_ID"):
			return nil, ErrGenUserIDRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and coherent.
func (c *Config) Validate() error {
	if c.AssetAPIBaseURL == "" {
		return ErrAssetAPIBaseURLRequired
	}
	if c.AssetPublicBaseURL == "" {
		return ErrAssetPublicBaseURLRequired
	}
	if c.GenAPIBaseURL == "" {
		return ErrGenAPIBaseURLRequired
	}
	if c.GenUserID == "" {
		return ErrGenUserIDRequired
	}
	if c.GenJobType != "image" && c.GenJobType != "video" {
		return ErrInvalidJobType
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, AssetAPIBaseURL: %s, AssetPublicBaseURL: %s, ProjectID: %s, GenAPIBaseURL: %s, GenJobType: %s, EffectID: %s, Model: %s, PollInterval: %s, MaxPolls: %d, DownloadDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.AssetAPIBaseURL,
		c.AssetPublicBaseURL,
		c.ProjectID,
		c.GenAPIBaseURL,
		c.GenJobType,
		c.EffectID,
		c.Model,
		c.PollInterval,
		c.MaxPolls,
		c.DownloadDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
