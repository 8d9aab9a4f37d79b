package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"

	"github.com/lhs-project/libre-health-sync/internal/app/storage/mocks"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/credentials"
	"github.com/lhs-project/libre-health-sync/internal/httpclient"
	"github.com/lhs-project/libre-health-sync/internal/sync/coordinator"
	syncmocks "github.com/lhs-project/libre-health-sync/internal/sync/mocks"
)

// createValidTestConfig creates a minimal valid config for testing
func createValidTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Account:     config.AccountConfig{Name: "household"},
		Sync:        config.SyncConfig{Mode: config.SyncModeContinuous, Interval: "1h"},
		Credentials: config.CredentialsConfig{Backend: config.CredentialsBackendMemory},
		Storage:     config.StorageConfig{Type: config.StorageTypeFile, DataDir: t.TempDir()},
	}
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()
		_, err := baseConfig()
		require.Error(t, err)
	})

	t.Run("address defaults to presenter address", func(t *testing.T) {
		t.Parallel()
		cfg := createValidTestConfig(t)
		cfg.Presenter.Address = ":9191"

		built, err := baseConfig(WithConfig(cfg))
		require.NoError(t, err)
		assert.Equal(t, ":9191", built.address)
		assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	})
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":9090"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "ip and port", addr: "127.0.0.1:0"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: ":", wantErr: true},
		{name: "no colon", addr: "8080", wantErr: true},
		{name: "bad port", addr: ":http", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			built, err := baseConfig(WithConfig(createValidTestConfig(t)), WithAddress(tt.addr))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, built)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, built.address)
		})
	}
}

func TestNewCredentialStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creds   config.CredentialsConfig
		wantErr bool
	}{
		{name: "memory", creds: config.CredentialsConfig{Backend: config.CredentialsBackendMemory}},
		{name: "keyring by default", creds: config.CredentialsConfig{}},
		{name: "file", creds: config.CredentialsConfig{Backend: config.CredentialsBackendFile}},
		{name: "unknown", creds: config.CredentialsConfig{Backend: "vault"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := createValidTestConfig(t)
			cfg.Credentials = tt.creds
			if cfg.Credentials.Backend == config.CredentialsBackendFile {
				cfg.Credentials.Path = t.TempDir() + "/credentials.yaml"
			}

			store, err := NewCredentialStore(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}

	_, err := NewCredentialStore(nil)
	require.Error(t, err)
}

func TestNewSyncApp_Defaults(t *testing.T) {
	t.Parallel()

	app, err := NewSyncApp(context.Background(), WithConfig(createValidTestConfig(t)))
	require.NoError(t, err)
	defer func() { _ = app.Stop(defaultRequestTimeout) }()

	components := app.GetComponents()
	assert.NotNil(t, components.SyncCoordinator)
	assert.NotNil(t, components.Scheduler)
	assert.NotNil(t, components.Session)
	assert.NotNil(t, components.Watermarks)
	assert.NotNil(t, components.Statuses)
	assert.NotNil(t, components.Telemetry)
	assert.Nil(t, components.Presenter)
	assert.Nil(t, app.GetHTTPServer())
	assert.Equal(t, "household", app.GetConfig().GetAccountName())
}

func TestNewSyncApp_WithPresenter(t *testing.T) {
	t.Parallel()

	cfg := createValidTestConfig(t)
	cfg.Presenter.Enabled = true

	ctrl := gomock.NewController(t)
	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
		WithMeterProvider(metricnoop.NewMeterProvider()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("lhs_readings_forwarded_total 0\n"))
		})),
		WithExecutionGrant(coordinator.GrantFunc(func() bool { return true })),
	)
	require.NoError(t, err)
	defer func() { _ = app.Stop(defaultRequestTimeout) }()

	components := app.GetComponents()
	assert.Nil(t, components.Session, "an injected sync manager needs no session")
	assert.Nil(t, components.Telemetry, "injected providers are not owned by the app")
	require.NotNil(t, components.Presenter)

	server := app.GetHTTPServer()
	require.NotNil(t, server)
	assert.Equal(t, "127.0.0.1:0", server.Addr)

	for _, path := range []string{"/health", "/metrics", "/api/v1/status"} {
		rec := httptest.NewRecorder()
		server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "no presentation before the first cycle")
}

func TestNewSyncApp_APIToken(t *testing.T) {
	t.Parallel()

	cfg := createValidTestConfig(t)
	cfg.Presenter.Enabled = true
	cfg.Presenter.TokenFile = filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(cfg.Presenter.TokenFile, []byte("s3cret\n"), 0o600))

	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithSyncManager(syncmocks.NewMockManager(gomock.NewController(t))),
	)
	require.NoError(t, err)
	defer func() { _ = app.Stop(defaultRequestTimeout) }()
	handler := app.GetHTTPServer().Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewSyncApp_StorageFactoryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(f *mocks.MockFactory)
		want  string
	}{
		{
			name: "watermark store",
			setup: func(f *mocks.MockFactory) {
				f.EXPECT().CreateWatermarkStore(gomock.Any()).Return(nil, errors.New("boom"))
			},
			want: "failed to create watermark store",
		},
		{
			name: "status persistence",
			setup: func(f *mocks.MockFactory) {
				f.EXPECT().CreateWatermarkStore(gomock.Any()).Return(nil, nil)
				f.EXPECT().CreateStatusPersistence(gomock.Any()).Return(nil, errors.New("boom"))
			},
			want: "failed to create status persistence",
		},
		{
			name: "reading writer",
			setup: func(f *mocks.MockFactory) {
				f.EXPECT().CreateWatermarkStore(gomock.Any()).Return(nil, nil)
				f.EXPECT().CreateStatusPersistence(gomock.Any()).Return(nil, nil)
				f.EXPECT().CreateReadingWriter(gomock.Any()).Return(nil, errors.New("boom"))
			},
			want: "failed to create reading writer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			factory := mocks.NewMockFactory(ctrl)
			tt.setup(factory)
			factory.EXPECT().Cleanup()

			_, err := NewSyncApp(context.Background(),
				WithConfig(createValidTestConfig(t)),
				WithStorageFactory(factory),
				WithCredentialStore(credentials.NewMemoryStore()),
			)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type failingClient struct {
	calls int
}

func (c *failingClient) Do(_ context.Context, _ *httpclient.Request) ([]byte, error) {
	c.calls++
	return nil, errors.New("connection refused")
}

func TestNewSyncApp_WithHTTPClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := credentials.NewMemoryStore()
	for key, value := range map[credentials.Key]string{
		credentials.KeyIdentity:  "jane@example.com",
		credentials.KeySecret:    "hunter2",
		credentials.KeyToken:     "opaque-token",
		credentials.KeyAccountID: "account-1",
		credentials.KeyRegion:    "eu",
	} {
		require.NoError(t, store.Set(ctx, key, value))
	}

	client := &failingClient{}
	app, err := NewSyncApp(ctx,
		WithConfig(createValidTestConfig(t)),
		WithCredentialStore(store),
		WithHTTPClient(client),
		WithMeterProvider(metricnoop.NewMeterProvider()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	_, err = app.RunOnce(ctx)
	require.Error(t, err)
	assert.Positive(t, client.calls)
}
