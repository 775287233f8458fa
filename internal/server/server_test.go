package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/observability"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		HTTPPort:          0,
		ReadHeaderTimeout: time.Second,
		MetricsEnabled:    true,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthAndReadiness(t *testing.T) {
	ready := errors.New("db down")
	srv := New(testConfig(), discardLogger(), Options{
		Ready: func(context.Context) error { return ready },
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = nil
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointAndRouteLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.MustNewMetrics(reg)
	srv := New(testConfig(), discardLogger(), Options{Metrics: metrics, TracerProvider: noop.NewTracerProvider()})
	srv.Mux().HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	expected := `
# HELP teaching_system_http_requests_total HTTP requests handled, by route pattern and status code.
# TYPE teaching_system_http_requests_total counter
teaching_system_http_requests_total{method="GET",route="GET /v1/things/{id}",status="418"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "teaching_system_http_requests_total"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "teaching_system_http_requests_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	srv := New(cfg, discardLogger(), Options{Metrics: observability.MustNewMetrics(prometheus.NewRegistry())})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	srv := New(testConfig(), logger, Options{})
	srv.Mux().HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "kaboom")
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Contains(t, buf.String(), `"status":201`)
	assert.Contains(t, buf.String(), `"bytes":5`)
}

func TestCORSMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"http://localhost:5173"}
	srv := New(cfg, discardLogger(), Options{})

	preflight := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"*", "http://localhost:5173"}
	srv := New(cfg, discardLogger(), Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestTracingNamesSpanAfterRoute(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srv := New(testConfig(), discardLogger(), Options{TracerProvider: tp})
	srv.Mux().HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, trace.SpanFromContext(r.Context()).SpanContext().IsValid())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /v1/things/{id}", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Contains(t, ended[0].Attributes(), attribute.String("http.route", "GET /v1/things/{id}"))
	assert.Equal(t, "GET", ended[1].Name())
}

func TestStartServesAndShutsDown(t *testing.T) {
	srv := New(testConfig(), discardLogger(), Options{})
	require.NoError(t, srv.Start(context.Background()))

	resp, err := http.Get("http://127.0.0.1:" + port(t, srv.Addr()) + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestStartFailsWhenPortTaken(t *testing.T) {
	first := New(testConfig(), discardLogger(), Options{})
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	p, err := strconv.Atoi(port(t, first.Addr()))
	require.NoError(t, err)
	cfg := testConfig()
	cfg.HTTPPort = p
	second := New(cfg, discardLogger(), Options{})
	assert.Error(t, second.Start(context.Background()))
}

func port(t *testing.T, addr string) string {
	t.Helper()
	_, p, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return p
}
