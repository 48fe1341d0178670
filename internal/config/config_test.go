package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/congo-pay/omnibus/internal/address"
)

const adminHex = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL",
		"REDIS_URL", "ADMIN_ADDRESS", "JWT_SECRET", "TOKEN_TTL", "TOKEN_TTL_SECONDS",
		"SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT_SECONDS", "IDEMPOTENCY_TTL",
		"IDEMPOTENCY_TTL_SECONDS", "RECORD_STREAM", "RECORD_STREAM_MAXLEN",
		"RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDevelopmentDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", adminHex)

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsDev())
	require.Equal(t, address.MustParse(adminHex), cfg.Admin)
	require.Equal(t, ":8080", cfg.Address())
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.NotEmpty(t, cfg.JWTSecret)
	require.Equal(t, int64(100000), cfg.RecordStreamMaxLen)
}

func TestLoadDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", adminHex)
	t.Setenv("TOKEN_TTL_SECONDS", "90")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.TokenTTL)
	require.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	require.Equal(t, time.Hour, cfg.IdempotencyTTL)

	t.Setenv("TOKEN_TTL_SECONDS", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRequiresAdmin(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ADMIN_ADDRESS", "0x0000000000000000000000000000000000000000")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("ADMIN_ADDRESS", "not-an-address")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadProductionRequiresBackends(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", adminHex)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/omnibus")
	_, err = Load()
	require.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_, err = Load()
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.IsDev())
}
