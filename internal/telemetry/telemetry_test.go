package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*Config{nil, {Enabled: false}} {
		tel, err := New(context.Background(), cfg)
		require.NoError(t, err)
		assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
		assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
		assert.Nil(t, tel.PrometheusHandler())
		assert.NotNil(t, tel.Tracer("test"))
		require.NoError(t, tel.Shutdown(context.Background()))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNew_PrometheusExporter(t *testing.T) {
	// Sets the global meter provider.
	ctx := context.Background()
	tel, err := New(ctx, &Config{
		Enabled: true,
		Metrics: &MetricsConfig{Enabled: true, Exporter: ExporterPrometheus},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	metrics, err := NewSyncMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordCycle(ctx, "acct", 0, 3, true)

	handler := tel.PrometheusHandler()
	require.NotNil(t, handler)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lhs_readings_forwarded_total")
	assert.Contains(t, rr.Body.String(), "go_goroutines")

	require.NoError(t, tel.Shutdown(ctx))
	require.NoError(t, tel.Shutdown(ctx))
}

func TestShutdown_TracingIsIdempotent(t *testing.T) {
	// Sets the global tracer provider.
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	ctx := context.Background()
	tel, err := New(ctx, &Config{
		Enabled:  true,
		Endpoint: strings.TrimPrefix(collector.URL, "http://"),
		Insecure: true,
		Tracing:  &TracingConfig{Enabled: true},
	})
	require.NoError(t, err)

	_, span := tel.Tracer("test").Start(ctx, "sync.perform")
	span.End()

	require.NoError(t, tel.Shutdown(ctx))
	require.NoError(t, tel.Shutdown(ctx))
}
