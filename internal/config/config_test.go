package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edueval/teaching-system/internal/config"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, config.BackendMemory, cfg.DataBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "teaching-system", cfg.JWTIssuer)
	assert.Equal(t, "secret", cfg.SessionSecret)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.Equal(t, 1024, cfg.UserCacheSize)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.UsesSQL())
}

func TestParseRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := config.Parse(nil)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestParseEnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://school.example")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://school.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)
}

func TestParseFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Parse([]string{"--http-port=7070", "--no-metrics"})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTPPort)
	assert.False(t, cfg.MetricsEnabled)
}

func TestParseBackends(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Run("postgres requires url", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "postgres")
		_, err := config.Parse(nil)
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("sqlite defaults path", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "sqlite")
		cfg, err := config.Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, "teaching_system.db", cfg.DatabaseURL)
		assert.True(t, cfg.UsesSQL())
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("DATA_BACKEND", "redis")
		_, err := config.Parse(nil)
		assert.Error(t, err)
	})
}

func TestParseEmbeds(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	var extra struct {
		Fixtures string `name:"fixtures" default:"builtin"`
	}
	_, err := config.Parse([]string{"--fixtures=custom.yaml"}, &extra)
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", extra.Fixtures)
}
