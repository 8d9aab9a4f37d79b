package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhs-project/libre-health-sync/internal/api"
	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/presenter"
	"github.com/lhs-project/libre-health-sync/internal/status"
	"github.com/lhs-project/libre-health-sync/internal/versions"
)

const testAccount = "household"

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence())
	rr := serve(t, server, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence())
	rr := serve(t, server, http.MethodGet, "/version")
	require.Equal(t, http.StatusOK, rr.Code)

	var info versions.Info
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}

func TestReadinessAndStatusEndpoints(t *testing.T) {
	t.Parallel()

	statuses := status.NewMemoryStatusPersistence()
	server := api.NewServer(testAccount, statuses)

	rr := serve(t, server, http.MethodGet, "/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	st := &status.SyncStatus{}
	st.MarkAttempt(time.Now())
	st.MarkComplete(time.Now(), 3, "Jane Doe", "1/2/2024 12:10:00 AM")
	require.NoError(t, statuses.SaveStatus(context.Background(), testAccount, st))

	rr = serve(t, server, http.MethodGet, "/readiness")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rr.Body.String())

	rr = serve(t, server, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, testAccount, resp.Account)
	require.NotNil(t, resp.Status)
	assert.Equal(t, status.SyncPhaseComplete, resp.Status.Phase)
	assert.Equal(t, 3, resp.Status.ForwardedCount)
	assert.Equal(t, "Jane Doe", resp.Status.ConnectionName)
}

func TestLiveEndpoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 0, 12, 0, 0, time.UTC)
	live := presenter.NewLive(llu.UnitMgPerDl, presenter.WithClock(func() time.Time { return now }))
	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence(), api.WithLiveView(live))

	rr := serve(t, server, http.MethodGet, "/api/v1/live")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), presenter.ErrNoActivePresentation.Error())

	value := 104.0
	trend := 3
	require.NoError(t, live.Start(context.Background(), "Jane Doe", llu.Reading{
		FactoryTimestamp: "1/2/2024 12:10:00 AM",
		Timestamp:        "1/2/2024 12:10:00 AM",
		ValueInMgPerDl:   &value,
		TrendArrow:       &trend,
	}))

	rr = serve(t, server, http.MethodGet, "/api/v1/live")
	require.Equal(t, http.StatusOK, rr.Code)

	var p presenter.Presentation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Jane Doe", p.ConnectionName)
	assert.Equal(t, 104.0, p.ValueMgPerDl)
	assert.False(t, p.Stale)

	rr = serve(t, server, http.MethodDelete, "/api/v1/live")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, live.HasActive())
}

func TestLiveEndpoint_Disabled(t *testing.T) {
	t.Parallel()

	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence())
	assert.Equal(t, http.StatusNotFound, serve(t, server, http.MethodGet, "/api/v1/live").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, server, http.MethodDelete, "/api/v1/live").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence())
	assert.Equal(t, http.StatusNotFound, serve(t, server, http.MethodGet, "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("lhs_relogins_total 0\n"))
	})
	server = api.NewServer(testAccount, status.NewMemoryStatusPersistence(), api.WithMetricsHandler(metrics))
	rr := serve(t, server, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "lhs_relogins_total")
}

func TestDefaultMiddlewares(t *testing.T) {
	t.Parallel()

	server := api.NewServer(testAccount, status.NewMemoryStatusPersistence(),
		api.WithMiddlewares(api.DefaultMiddlewares(time.Second)...))

	rr := serve(t, server, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
}
