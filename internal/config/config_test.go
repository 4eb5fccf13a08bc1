package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ASSET_API_BASE_URL", "https://assets.example.com")
	t.Setenv("ASSET_PUBLIC_BASE_URL", "https://cdn.example.com")
	t.Setenv("GEN_API_BASE_URL", "https://gen.example.com")
	t.Setenv("GEN_USER_ID", "user-123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dressr", cfg.ProjectID)
	assert.Equal(t, "video", cfg.GenJobType)
	assert.Equal(t, "halloween", cfg.EffectID)
	assert.Equal(t, "video-effects", cfg.Model)
	assert.True(t, cfg.RemoveWatermark)
	assert.True(t, cfg.IsPrivate)
	assert.Equal(t, "2s", cfg.PollInterval.String())
	assert.Equal(t, 60, cfg.MaxPolls)
	assert.Equal(t, "30s", cfg.HTTPTimeout.String())
	assert.Equal(t, "/tmp/effects-playground", cfg.DownloadDir)
	assert.Equal(t, "halloween_result", cfg.DownloadPrefix)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GEN_JOB_TYPE", "image")
	t.Setenv("EFFECT_ID", "winter")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("MAX_POLLS", "10")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "image", cfg.GenJobType)
	assert.Equal(t, "winter", cfg.EffectID)
	assert.Equal(t, "500ms", cfg.PollInterval.String())
	assert.Equal(t, 10, cfg.MaxPolls)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingAssetAPIBaseURL(t *testing.T) {
	t.Setenv("ASSET_API_BASE_URL", "")
	t.Setenv("ASSET_PUBLIC_BASE_URL", "https://cdn.example.com")
	t.Setenv("GEN_API_BASE_URL", "https://gen.example.com")
	t.Setenv("GEN_USER_ID", "user-123")

	_, err := Load()
	assert.ErrorIs(t, err, ErrAssetAPIBaseURLRequired)
}

func TestLoad_MissingGenUserID(t *testing.T) {
	t.Setenv("ASSET_API_BASE_URL", "https://assets.example.com")
	t.Setenv("ASSET_PUBLIC_BASE_URL", "https://cdn.example.com")
	t.Setenv("GEN_API_BASE_URL", "https://gen.example.com")
	t.Setenv("GEN_USER_ID", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrGenUserIDRequired)
}

func TestLoad_InvalidJobType(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEN_JOB_TYPE", "audio")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidJobType)
}

func TestConfig_S3Enabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.S3Enabled())
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AWS_SECRET_ACCESS_KEY", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "user-123")
	assert.Contains(t, s, "https://assets.example.com")
}

func TestConfig_NewLogger(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &slog.Logger{}, logger)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
