package httptransport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docutrack/internal/platform/metrics"
	"docutrack/pkg/testutil"
)

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/echo", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func newTestRouter(t *testing.T, health map[string]HealthCheck) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(Options{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Metrics:  metrics.NewWithRegisterer(reg),
		Gatherer: reg,
		Health:   health,
	}, echoModule{})
}

func TestRouterMiddlewareChain(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("request id is echoed", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/echo"))
		testutil.AssertStatusOK(t, rr)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/panic"))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})

	t.Run("non json body is rejected", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/echo", "title=x")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnsupportedMediaType)
	})

	t.Run("metrics expose route latency", func(t *testing.T) {
		testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/echo"))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.True(t, strings.Contains(rr.Body.String(), "docutrack_http_request_duration_seconds"))
	})
}

func TestHealth(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(t, nil), testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[HealthResponse](t, rr)
		assert.Equal(t, "ok", resp.Status)
	})

	t.Run("failing dependency degrades", func(t *testing.T) {
		router := newTestRouter(t, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[HealthResponse](t, rr)
		require.Len(t, resp.Checks, 2)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "ok", resp.Checks["postgres"])
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})
}
