package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for sync metrics
const MeterName = "github.com/lhs-project/libre-health-sync"

// Sync outcomes used as the "result" attribute
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var syncDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// SyncMetrics records sync cycle instruments. A nil *SyncMetrics is a valid no-op.
type SyncMetrics struct {
	cycleDuration metric.Float64Histogram
	forwarded     metric.Int64Counter
	relogins      metric.Int64Counter
}

// NewSyncMetrics creates the sync instruments. A nil provider yields a nil (no-op) value.
func NewSyncMetrics(mp metric.MeterProvider) (*SyncMetrics, error) {
	if mp == nil {
		return nil, nil
	}
	meter := mp.Meter(MeterName)

	cycleDuration, err := meter.Float64Histogram(
		"lhs_sync_cycle_duration_seconds",
		metric.WithDescription("Duration of sync cycles"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(syncDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	forwarded, err := meter.Int64Counter(
		"lhs_readings_forwarded_total",
		metric.WithDescription("Readings forwarded to the sink"),
		metric.WithUnit("{reading}"),
	)
	if err != nil {
		return nil, err
	}

	relogins, err := meter.Int64Counter(
		"lhs_relogins_total",
		metric.WithDescription("Re-authentications after token expiry"),
		metric.WithUnit("{relogin}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{cycleDuration: cycleDuration, forwarded: forwarded, relogins: relogins}, nil
}

// RecordCycle records one sync cycle
func (m *SyncMetrics) RecordCycle(ctx context.Context, account string, duration time.Duration, forwarded int, success bool) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("result", result),
	))
	if forwarded > 0 {
		m.forwarded.Add(ctx, int64(forwarded), metric.WithAttributes(attribute.String("account", account)))
	}
}

// RecordRelogin counts one re-authentication attempt
func (m *SyncMetrics) RecordRelogin(ctx context.Context, account string) {
	if m == nil {
		return
	}
	m.relogins.Add(ctx, 1, metric.WithAttributes(attribute.String("account", account)))
}

// ReadingMetrics exposes the latest glucose value as an observable gauge.
// A nil *ReadingMetrics is a valid no-op.
type ReadingMetrics struct {
	mu     sync.RWMutex
	latest map[string]float64
}

// NewReadingMetrics registers the glucose gauge. A nil provider yields a nil (no-op) value.
func NewReadingMetrics(mp metric.MeterProvider) (*ReadingMetrics, error) {
	if mp == nil {
		return nil, nil
	}
	m := &ReadingMetrics{latest: make(map[string]float64)}

	meter := mp.Meter(MeterName)
	_, err := meter.Float64ObservableGauge(
		"lhs_glucose_mg_dl",
		metric.WithDescription("Latest glucose reading"),
		metric.WithUnit("mg/dL"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for connection, value := range m.latest {
				o.Observe(value, metric.WithAttributes(attribute.String("connection", connection)))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetLatest stores the value reported on the next collection
func (m *ReadingMetrics) SetLatest(connection string, valueMgPerDl float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.latest[connection] = valueMgPerDl
	m.mu.Unlock()
}
