package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"APP_ENV", "ENV", "HTTP_ADDR", "DATABASE_URL", "JWT_SECRET", "JWT_TTL",
		"BOOKING_TX_ATTEMPTS", "BOOKING_TX_BACKOFF", "BOOKING_LOCK_TIMEOUT",
		"LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(name, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "gearbook.db", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.BookingTxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.BookingTxBackoff)
	assert.Equal(t, 5*time.Second, cfg.BookingLockTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "Staging")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/gear")
	t.Setenv("BOOKING_TX_ATTEMPTS", "5")
	t.Setenv("BOOKING_TX_BACKOFF", "100ms")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, "postgres://u:p@localhost:5432/gear", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.BookingTxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.BookingTxBackoff)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":      {"JWT_TTL": "forever"},
		"zero attempts":     {"BOOKING_TX_ATTEMPTS": "0"},
		"non-numeric":       {"BOOKING_TX_ATTEMPTS": "three"},
		"negative backoff":  {"BOOKING_TX_BACKOFF": "-1s"},
		"bad log level":     {"LOG_LEVEL": "loud"},
		"prod default key":  {"APP_ENV": "production"},
		"zero lock timeout": {"BOOKING_LOCK_TIMEOUT": "0s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_ProductionWithSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "release")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
