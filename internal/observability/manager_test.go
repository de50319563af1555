package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

func TestPrometheusExportsJobDurationBuckets(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{Observability: config.Observability{
		ServiceName:     "ordering-test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
	}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	assert.False(t, mgr.TracingEnabled())
	require.True(t, mgr.MetricsEnabled())

	hist, err := mgr.MeterProvider().Meter("test").Float64Histogram("jobs.duration", metric.WithUnit("s"))
	require.NoError(t, err)
	hist.Record(context.Background(), 12)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobs_duration_seconds_bucket")
	assert.Contains(t, rec.Body.String(), `le="30"`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnsupportedExportersDisableSignals(t *testing.T) {
	mgr, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}
