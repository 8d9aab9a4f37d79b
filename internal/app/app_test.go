package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lhs-project/libre-health-sync/internal/credentials"
	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/status"
	pkgsync "github.com/lhs-project/libre-health-sync/internal/sync"
	syncmocks "github.com/lhs-project/libre-health-sync/internal/sync/mocks"
)

func ptr[T any](v T) *T { return &v }

func TestSyncApp_StartAndStop(t *testing.T) {
	t.Parallel()

	cfg := createValidTestConfig(t)
	cfg.Presenter.Enabled = true

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any()).Return(&pkgsync.Result{
		ForwardedCount: 2,
		AcceptedCount:  2,
		ConnectionName: "Jane Doe",
		CurrentReading: &llu.Reading{
			FactoryTimestamp: "1/2/2024 12:15:00 AM",
			Timestamp:        "1/2/2024 12:15:00 AM",
			ValueInMgPerDl:   ptr(120.0),
			TrendArrow:       ptr(3),
		},
	}, nil).MinTimes(1)

	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithSyncManager(manager),
	)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Start(context.Background()) }()

	handler := app.GetHTTPServer().Handler
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
		return rec.Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
	assert.Contains(t, rec.Body.String(), "Jane Doe")

	st, err := app.GetComponents().Statuses.LoadStatus(context.Background(), "household")
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, 2, st.ForwardedCount)

	require.NoError(t, app.Stop(time.Second))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestSyncApp_RunOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any()).Return(&pkgsync.Result{ForwardedCount: 1}, nil)

	app, err := NewSyncApp(context.Background(),
		WithConfig(createValidTestConfig(t)),
		WithSyncManager(manager),
	)
	require.NoError(t, err)
	defer func() { _ = app.Stop(time.Second) }()

	result, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ForwardedCount)
}

func TestSyncApp_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(ctx, credentials.KeyToken, "token"))
	require.NoError(t, store.Set(ctx, credentials.KeyIdentity, "jane@example.com"))

	app, err := NewSyncApp(ctx,
		WithConfig(createValidTestConfig(t)),
		WithCredentialStore(store),
	)
	require.NoError(t, err)
	defer func() { _ = app.Stop(time.Second) }()

	components := app.GetComponents()
	require.NoError(t, components.Watermarks.SetWatermark(ctx, "household", "1/2/2024 12:15:00 AM"))
	require.NoError(t, components.Statuses.SaveStatus(ctx, "household", &status.SyncStatus{Phase: status.SyncPhaseComplete}))

	require.NoError(t, app.Logout(ctx))

	_, err = store.Get(ctx, credentials.KeyToken)
	require.ErrorIs(t, err, credentials.ErrNotFound)

	_, ok, err := components.Watermarks.GetWatermark(ctx, "household")
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := components.Statuses.LoadStatus(ctx, "household")
	require.NoError(t, err)
	assert.Empty(t, st.Phase)
}
