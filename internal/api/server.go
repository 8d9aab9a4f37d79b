// Package api provides the HTTP surface of the sync daemon: health, the live
// presentation, the persisted sync status and the metrics scrape endpoint.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lhs-project/libre-health-sync/internal/api/common"
	"github.com/lhs-project/libre-health-sync/internal/presenter"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/versions"
)

// LiveView is the read side of the live presentation
type LiveView interface {
	Snapshot() (presenter.Presentation, bool)
	End(ctx context.Context) error
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	live           LiveView
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithLiveView exposes the live presentation under /api/v1/live
func WithLiveView(live LiveView) ServerOption {
	return func(cfg *serverConfig) {
		cfg.live = live
	}
}

// WithMetricsHandler mounts a scrape handler at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

type routes struct {
	account  string
	statuses status.StatusPersistence
	live     LiveView
}

// NewServer creates the HTTP router for one account
func NewServer(account string, statuses status.StatusPersistence, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	rt := &routes{account: account, statuses: statuses, live: cfg.live}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Get("/readiness", rt.readiness)
	r.Get("/version", versionHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", rt.getStatus)
		r.Get("/live", rt.getLive)
		r.Delete("/live", rt.endLive)
	})

	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	return r
}

// DefaultMiddlewares is the standard chain for the API server
func DefaultMiddlewares(requestTimeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		LoggingMiddleware,
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// readiness reports ready once a cycle has completed
func (rt *routes) readiness(w http.ResponseWriter, r *http.Request) {
	st, err := rt.statuses.LoadStatus(r.Context(), rt.account)
	if err != nil {
		common.WriteErrorResponse(w, r, "failed to load sync status", http.StatusServiceUnavailable)
		return
	}
	if st.LastSyncTime == nil {
		common.WriteErrorResponse(w, r, "no sync cycle has completed yet", http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
}

func (rt *routes) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := rt.statuses.LoadStatus(r.Context(), rt.account)
	if err != nil {
		slog.Error("Failed to load sync status", "account", rt.account, "error", err)
		common.WriteErrorResponse(w, r, "failed to load sync status", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, StatusResponse{Account: rt.account, Status: st}, http.StatusOK)
}

func (rt *routes) getLive(w http.ResponseWriter, r *http.Request) {
	if rt.live == nil {
		common.WriteErrorResponse(w, r, "live presentation is disabled", http.StatusNotFound)
		return
	}
	p, ok := rt.live.Snapshot()
	if !ok {
		common.WriteErrorResponse(w, r, presenter.ErrNoActivePresentation.Error(), http.StatusNotFound)
		return
	}
	common.WriteJSONResponse(w, p, http.StatusOK)
}

func (rt *routes) endLive(w http.ResponseWriter, r *http.Request) {
	if rt.live == nil {
		common.WriteErrorResponse(w, r, "live presentation is disabled", http.StatusNotFound)
		return
	}
	if err := rt.live.End(r.Context()); err != nil {
		if errors.Is(err, presenter.ErrNoActivePresentation) {
			common.WriteErrorResponse(w, r, err.Error(), http.StatusNotFound)
			return
		}
		common.WriteErrorResponse(w, r, "failed to end presentation", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
