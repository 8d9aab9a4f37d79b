package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/lhs-project/libre-health-sync/internal/api"
	"github.com/lhs-project/libre-health-sync/internal/app/storage"
	"github.com/lhs-project/libre-health-sync/internal/auth"
	"github.com/lhs-project/libre-health-sync/internal/config"
	"github.com/lhs-project/libre-health-sync/internal/credentials"
	"github.com/lhs-project/libre-health-sync/internal/httpclient"
	"github.com/lhs-project/libre-health-sync/internal/presenter"
	"github.com/lhs-project/libre-health-sync/internal/remote"
	pkgsync "github.com/lhs-project/libre-health-sync/internal/sync"
	"github.com/lhs-project/libre-health-sync/internal/sync/coordinator"
	"github.com/lhs-project/libre-health-sync/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the builder inputs.
// Every component can be injected, primarily for testing.
type syncAppConfig struct {
	config *config.Config

	storageFactory  storage.Factory
	syncManager     pkgsync.Manager
	credentialStore credentials.Store
	httpClient      httpclient.Client
	grant           coordinator.ExecutionGrant

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Presenter.GetAddress()
	}

	return cfg, nil
}

// NewSyncApp builds the application for the configured account
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components := &AppComponents{}

	// Telemetry first so every later component is instrumented
	if cfg.meterProvider == nil || cfg.tracerProvider == nil {
		tel, err := telemetry.New(ctx, cfg.config.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		components.Telemetry = tel
		if cfg.meterProvider == nil {
			cfg.meterProvider = tel.MeterProvider()
		}
		if cfg.tracerProvider == nil {
			cfg.tracerProvider = tel.TracerProvider()
		}
		if cfg.metricsHandler == nil {
			cfg.metricsHandler = tel.PrometheusHandler()
		}
	}

	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			shutdownTelemetry(components.Telemetry)
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
			shutdownTelemetry(components.Telemetry)
		}
	}()

	if err := buildSyncComponents(ctx, cfg, components); err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	var httpServer *http.Server
	if cfg.config.Presenter.Enabled {
		httpServer, err = buildHTTPServer(cfg, components)
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP server: %w", err)
		}
	}

	cleanupNeeded = false

	return &SyncApp{
		config:         cfg.config,
		components:     components,
		httpServer:     httpServer,
		storageFactory: cfg.storageFactory,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the HTTP server address from the presenter configuration
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithCredentialStore overrides the configured credential backend
func WithCredentialStore(store credentials.Store) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.credentialStore = store
		return nil
	}
}

// WithHTTPClient overrides the client used to reach the remote service
func WithHTTPClient(client httpclient.Client) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.httpClient = client
		return nil
	}
}

// WithExecutionGrant tells the coordinator whether the host allows continuous execution
func WithExecutionGrant(grant coordinator.ExecutionGrant) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.grant = grant
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler mounts a scrape handler at /metrics
func WithMetricsHandler(h http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSyncComponents builds the session, the sync manager and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
	components *AppComponents,
) error {
	slog.Info("Initializing sync components", "account", b.config.GetAccountName())

	watermarks, err := b.storageFactory.CreateWatermarkStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to create watermark store: %w", err)
	}
	components.Watermarks = watermarks

	statuses, err := b.storageFactory.CreateStatusPersistence(ctx)
	if err != nil {
		return fmt.Errorf("failed to create status persistence: %w", err)
	}
	components.Statuses = statuses

	if b.syncManager == nil {
		store := b.credentialStore
		if store == nil {
			store, err = NewCredentialStore(b.config)
			if err != nil {
				return fmt.Errorf("failed to create credential store: %w", err)
			}
		}
		components.Session = NewSessionManager(b.config, store, b.httpClient)

		sink, err := b.storageFactory.CreateReadingWriter(ctx)
		if err != nil {
			return fmt.Errorf("failed to create reading writer: %w", err)
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			b.config.GetAccountName(),
			remote.NewClient(components.Session),
			sink,
			watermarks,
			pkgsync.WithReloginFunc(components.Session.Relogin),
			pkgsync.WithTracer(b.tracerProvider.Tracer(telemetry.MeterName)),
		)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}
	readingMetrics, err := telemetry.NewReadingMetrics(b.meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create reading metrics: %w", err)
	}

	components.Scheduler = coordinator.NewTimerScheduler(b.config.Sync.GetInvocationDeadline())
	coordOpts := []coordinator.Option{
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithReadingMetrics(readingMetrics),
		coordinator.WithScheduler(components.Scheduler),
	}
	if b.grant != nil {
		coordOpts = append(coordOpts, coordinator.WithExecutionGrant(b.grant))
	}
	if b.config.Presenter.Enabled {
		components.Presenter = presenter.NewLive(b.config.Presenter.GetDisplayUnit())
		coordOpts = append(coordOpts, coordinator.WithPresenter(components.Presenter))
	}

	components.SyncCoordinator = coordinator.New(
		b.syncManager,
		statuses,
		coordinator.ConfigFromSync(b.config),
		coordOpts...,
	)
	components.Scheduler.Handle(components.SyncCoordinator.HandleInvocation)

	slog.Info("Sync components initialized successfully")
	return nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *syncAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = api.DefaultMiddlewares(b.requestTimeout)
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}
	token, err := b.config.Presenter.GetToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read API token: %w", err)
	}
	if token == "" {
		slog.Warn("API token not configured, the HTTP surface is unauthenticated")
	}

	// Telemetry goes first to capture every request, including rejected ones
	middlewares := append([]func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.tracerProvider),
		httpMetrics.Middleware,
	}, b.middlewares...)
	middlewares = append(middlewares,
		auth.WrapWithPublicPaths(auth.NewTokenMiddleware(token, auth.DefaultRealm), auth.DefaultPublicPaths))

	serverOpts := []api.ServerOption{api.WithMiddlewares(middlewares...)}
	if components.Presenter != nil {
		serverOpts = append(serverOpts, api.WithLiveView(components.Presenter))
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(b.config.GetAccountName(), components.Statuses, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
