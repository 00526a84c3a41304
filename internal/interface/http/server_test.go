package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/internal/interface/http/handlers"
	"github.com/habitbot/habit-bot/pkg/logger"
)

func newTestServer(t *testing.T, storageErr error) *Server {
	t.Helper()

	health := handlers.NewHealthChecker("test", nil)
	health.AddCheck("storage", func(context.Context) error { return storageErr })

	m := metrics.New()
	m.RecordCheckIn()

	return NewServer(DefaultConfig(), Dependencies{
		Health:  health,
		Metrics: m.Handler(),
		Logger:  logger.Discard(),
	})
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_HealthOK(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.True(t, status.Checks["storage"].Healthy)
}

func TestServer_HealthStorageDown(t *testing.T) {
	rec := serve(newTestServer(t, errors.New("connection refused")), http.MethodGet, "/healthz")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, "connection refused", status.Checks["storage"].Message)
}

func TestServer_Metrics(t *testing.T) {
	rec := serve(newTestServer(t, nil), http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "habitbot_checkins_total 1")
}

func TestServer_UnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPost, "/healthz").Code)
}

func TestServer_PanicRecovered(t *testing.T) {
	health := handlers.NewHealthChecker("", nil)
	s := NewServer(DefaultConfig(), Dependencies{Health: health, Logger: logger.Discard()})
	s.router.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := serve(s, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_ShutdownWhenNotRunning(t *testing.T) {
	s := newTestServer(t, nil)

	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Shutdown(context.Background()))
}
