package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Contains(t, cfg.DBUrl, "campusticketing")
	assert.Equal(t, devJWTSecret, cfg.JWTSecret, "development falls back to a dev secret")
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, uint(4), cfg.RegisterMaxAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.RecentWindow)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 5.0, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(map[string]string{
		"GO_ENV":                "production",
		"PORT":                  "9090",
		"DATABASE_URL":          "postgres://u:p@db:5432/tickets",
		"STORAGE_DRIVER":        "memory",
		"JWT_SECRET":            "s3cret",
		"LOCK_TIMEOUT":          "500ms",
		"REGISTER_MAX_ATTEMPTS": "6",
		"RECENT_WINDOW":         "72h",
		"REQUEST_TIMEOUT":       "3s",
		"CORS_ALLOWED_ORIGINS":  "https://a.example,https://b.example",
		"RATE_LIMIT_RPS":        "0",
		"RATE_LIMIT_BURST":      "1",
		"LOG_LEVEL":             "debug",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/tickets", cfg.DBUrl)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 500*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, uint(6), cfg.RegisterMaxAttempts)
	assert.Equal(t, 72*time.Hour, cfg.RecentWindow)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, 1, cfg.RateLimitBurst)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr string
	}{
		{name: "unknown storage driver", environ: map[string]string{"STORAGE_DRIVER": "redis"}, wantErr: "STORAGE_DRIVER"},
		{name: "production needs a secret", environ: map[string]string{"GO_ENV": "production"}, wantErr: "JWT_SECRET is required"},
		{name: "zero attempts", environ: map[string]string{"REGISTER_MAX_ATTEMPTS": "0"}, wantErr: "REGISTER_MAX_ATTEMPTS"},
		{name: "negative lock timeout", environ: map[string]string{"LOCK_TIMEOUT": "-1s"}, wantErr: "LOCK_TIMEOUT"},
		{name: "malformed duration", environ: map[string]string{"REQUEST_TIMEOUT": "soon"}, wantErr: "parse env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(tt.environ)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewLogger(t *testing.T) {
	t.Run("production writes JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, &Config{Environment: "production", LogLevel: "info"})
		logger.Debug("hidden")
		logger.Info("registered", "event_id", "ev-1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "registered", entry["msg"])
		assert.Equal(t, "ev-1", entry["event_id"])
	})

	t.Run("development writes text at the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, &Config{Environment: "development", LogLevel: "warn"})
		logger.Info("hidden")
		logger.Warn("lock wait", "attempt", 2)

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "lock wait")
		assert.Contains(t, out, "attempt")
	})
}
