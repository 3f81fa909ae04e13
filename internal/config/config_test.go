package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/coursehub")
}

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"PORT", "ENV", "STORE_BACKEND", "REDIS_URL", "TIMEZONE", "WORKER_COUNT",
		"SESSION_IDLE_TIMEOUT_MINUTES", "SESSION_SWEEP_INTERVAL_MINUTES", "MIGRATIONS_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, "", cfg.RedisURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TIMEZONE", "Asia/Tokyo")
	t.Setenv("SESSION_IDLE_TIMEOUT_MINUTES", "45")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"missing secret", "JWT_SECRET", "", "JWT_SECRET"},
		{"postgres without url", "DATABASE_URL", "", "DATABASE_URL"},
		{"unknown backend", "STORE_BACKEND", "sqlite", "STORE_BACKEND"},
		{"unknown zone", "TIMEZONE", "Mars/Olympus", "TIMEZONE"},
		{"no workers", "WORKER_COUNT", "0", "WORKER_COUNT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("STORE_BACKEND", "")
			t.Setenv("TIMEZONE", "")
			t.Setenv("WORKER_COUNT", "")
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadStorage_IgnoresServiceSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("WORKER_COUNT", "0")

	cfg, err := LoadStorage()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)

	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = LoadStorage()
	assert.ErrorContains(t, err, "DATABASE_URL")
}
