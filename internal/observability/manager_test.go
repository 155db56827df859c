package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/fornecedor/internal/config"
)

func TestPrometheusMetricsAreServed(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "fornecedor",
		ServiceVersion:  "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}

	mgr, err := NewManager(lc, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	require.True(t, mgr.MetricsEnabled())
	require.NotNil(t, mgr.MetricsHandler())
	assert.Equal(t, "/metrics", mgr.PrometheusPath())

	lc.RequireStart()
	defer lc.RequireStop()

	counter, err := otel.Meter("test").Int64Counter("registry.lookups")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "registry_lookups")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestUnknownExportersDisableSignals(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}

	mgr, err := NewManager(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}

func TestOTLPRequiresEndpoint(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{
		EnableTracing: true,
		TraceExporter: "otlp",
	}}

	_, err := NewManager(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
