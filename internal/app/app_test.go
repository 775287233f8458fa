package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/edueval/teaching-system/internal/app"
	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/server"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Config{
		Env:                "test",
		LogLevel:           "error",
		HTTPPort:           0,
		ShutdownTimeout:    5 * time.Second,
		ReadHeaderTimeout:  time.Second,
		DataBackend:        backend,
		DBMaxOpenConns:     4,
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		JWTIssuer:          "teaching-system",
		LoginRatePerMinute: 60,
		LoginBurst:         10,
		UserCacheSize:      16,
		MetricsEnabled:     true,
	}
	switch backend {
	case config.BackendSQLite:
		cfg.DatabaseURL = filepath.Join(t.TempDir(), "app.db")
	case config.BackendPostgres:
		cfg.DatabaseURL = "postgres://localhost:5432/teaching?sslmode=disable"
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func baseURL(t *testing.T, srv *server.Server) string {
	t.Helper()
	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	return "http://127.0.0.1:" + port
}

func TestScopeNames(t *testing.T) {
	assert.Equal(t, "teaching_system.components", app.ComponentScope)
	assert.Equal(t, "teaching_system.mappers", app.MapperScope)
}

func TestGraphValidatesForEveryBackend(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite, config.BackendPostgres} {
		t.Run(backend, func(t *testing.T) {
			require.NoError(t, fx.ValidateApp(app.Options(testConfig(t, backend))))
		})
	}
}

func TestStartsAndServesHealth(t *testing.T) {
	var srv *server.Server
	application := fxtest.New(t, app.Options(testConfig(t, config.BackendMemory)), fx.Populate(&srv))
	application.RequireStart()
	defer application.RequireStop()

	resp, err := http.Get(baseURL(t, srv) + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSQLiteBackendEndToEnd(t *testing.T) {
	var (
		srv      *server.Server
		services domain.Container
	)
	application := fxtest.New(t, app.Options(testConfig(t, config.BackendSQLite)), fx.Populate(&srv, &services))
	application.RequireStart()
	defer application.RequireStop()

	base := baseURL(t, srv)

	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = services.Users.Provision(context.Background(), users.RegisterInput{
		Email: "e2e@example.com", Password: "password123", Role: "teacher",
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{"email": "e2e@example.com", "password": "password123"})
	require.NoError(t, err)
	resp, err = http.Post(base+"/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var session struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	eval, err := json.Marshal(map[string]string{"evaluation_id": "eval_001", "user_id": "user_001", "points_degree": "A"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, base+"/v1/evaluations", bytes.NewReader(eval))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.Token.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartupFailsOnUnreachableDatabase(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "missing", "dir", "app.db")

	application := fx.New(app.Options(cfg), fx.NopLogger)
	assert.Error(t, application.Err())
}

func TestRunRejectsInvalidArguments(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	err := app.Run([]string{"--data-backend=ledger"})
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	require.Error(t, app.Run(nil))
}
