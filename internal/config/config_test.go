package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "ADMIN_PASSWORD", "SESSION_SECRET",
		"SESSION_TTL", "DATA_BRANCH", "REDIS_URL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_PASSWORD", "fore!")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "golf-society.db", cfg.DatabaseURL)
	assert.Equal(t, "main", cfg.DataBranch)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.RedisURL)

	// Without a dedicated secret, sessions are signed with the admin password.
	assert.Equal(t, "fore!", cfg.SessionSecret)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_PASSWORD", "fore!")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ENV", "production")
	t.Setenv("DATA_BRANCH", "society-data")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "society-data", cfg.DataBranch)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "fore!")
	t.Setenv("SESSION_TTL", "half a day")
	_, err = Load()
	assert.ErrorContains(t, err, "SESSION_TTL")
}
