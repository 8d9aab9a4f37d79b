package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.Equal(t, DefaultSampling, (&TracingConfig{}).GetSampling())
	assert.Equal(t, ExporterOTLP, (&MetricsConfig{}).GetExporter())

	cfg = &Config{ServiceName: "custom", ServiceVersion: "1.2.3", Endpoint: "otel:4318"}
	assert.Equal(t, "custom", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
	assert.Equal(t, "otel:4318", cfg.GetEndpoint())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil},
		{name: "disabled ignores bad values", cfg: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}}},
		{
			name: "valid tracing and prometheus metrics",
			cfg: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 0.5},
				Metrics: &MetricsConfig{Enabled: true, Exporter: ExporterPrometheus},
			},
		},
		{
			name:    "sampling out of range",
			cfg:     &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "sampling must be between",
		},
		{
			name:    "negative sampling",
			cfg:     &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "sampling must be between",
		},
		{
			name:    "unknown exporter",
			cfg:     &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Exporter: "statsd"}},
			wantErr: `unsupported exporter "statsd"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
