package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	sm, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, sm)
	sm.RecordCycle(context.Background(), "acct", time.Second, 1, true)
	sm.RecordRelogin(context.Background(), "acct")

	rm, err := NewReadingMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, rm)
	rm.SetLatest("Jane", 100)

	hm, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, hm)
}

func TestSyncMetrics_RecordCycle(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	sm, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordCycle(ctx, "acct", 2*time.Second, 4, true)
	sm.RecordCycle(ctx, "acct", time.Second, 0, false)
	sm.RecordRelogin(ctx, "acct")

	metrics := collect(t, reader)

	hist, ok := metrics["lhs_sync_cycle_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)
	results := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("result"))
		results[v.AsString()] = dp.Count
	}
	assert.Equal(t, map[string]uint64{ResultSuccess: 1, ResultFailure: 1}, results)

	forwarded, ok := metrics["lhs_readings_forwarded_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, forwarded.DataPoints, 1)
	assert.Equal(t, int64(4), forwarded.DataPoints[0].Value)

	relogins, ok := metrics["lhs_relogins_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, relogins.DataPoints, 1)
	assert.Equal(t, int64(1), relogins.DataPoints[0].Value)
}

func TestReadingMetrics_Gauge(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	rm, err := NewReadingMetrics(mp)
	require.NoError(t, err)

	rm.SetLatest("Jane Doe", 110)
	rm.SetLatest("Jane Doe", 125)

	gauge, ok := collect(t, reader)["lhs_glucose_mg_dl"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 125.0, gauge.DataPoints[0].Value)
	v, _ := gauge.DataPoints[0].Attributes.Value(attribute.Key("connection"))
	assert.Equal(t, "Jane Doe", v.AsString())
}
