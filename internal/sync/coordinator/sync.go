package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/status"
	pkgsync "github.com/lhs-project/libre-health-sync/internal/sync"
)

// maxSyncTries covers the original cycle plus one cycle after re-authentication
const maxSyncTries = 2

func defaultRetryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	return b
}

// RunOnce performs one cycle while holding the account's sync lock and
// records the outcome in the persisted status.
func (c *defaultCoordinator) RunOnce(ctx context.Context) (*pkgsync.Result, error) {
	account := c.config.Account

	if c.lock != nil {
		release, err := c.lock.Acquire()
		if err != nil {
			slog.Info("Skipping sync cycle, lock not acquired", "account", account, "error", err)
			return nil, err
		}
		defer release()
	}

	syncStatus := c.loadStatus(ctx)
	startTime := c.now()
	syncStatus.MarkAttempt(startTime)
	c.saveStatus(ctx, syncStatus)

	slog.Info("Starting sync operation", "account", account, "attempt", syncStatus.AttemptCount)

	result, syncErr := c.syncWithRelogin(ctx)
	syncDuration := c.now().Sub(startTime)

	if syncErr != nil {
		syncStatus.MarkFailed(syncErr.Error(), errors.Is(syncErr, llu.ErrTermsRequired))
		c.saveStatus(ctx, syncStatus)
		c.syncMetrics.RecordCycle(ctx, account, syncDuration, 0, false)

		slog.Error("Sync failed",
			"account", account,
			"stage", pkgsync.StageOf(syncErr),
			"error", syncErr)
		return nil, syncErr
	}

	readingTime := ""
	if result.CurrentReading != nil {
		readingTime = result.CurrentReading.Timestamp
	}
	syncStatus.MarkComplete(c.now(), result.ForwardedCount, result.ConnectionName, readingTime)
	c.saveStatus(ctx, syncStatus)
	c.syncMetrics.RecordCycle(ctx, account, syncDuration, result.ForwardedCount, true)

	slog.Info("Sync completed successfully",
		"account", account,
		"forwarded", result.ForwardedCount,
		"accepted", result.AcceptedCount,
		"watermark", result.Watermark,
		"duration", syncDuration)

	c.notifyPresenter(ctx, result)
	return result, nil
}

// syncWithRelogin runs PerformSync and, when the token has expired,
// re-authenticates and runs the cycle once more. Other failures are final.
func (c *defaultCoordinator) syncWithRelogin(ctx context.Context) (*pkgsync.Result, error) {
	tries := 0
	operation := func() (*pkgsync.Result, error) {
		tries++
		result, err := c.manager.PerformSync(ctx)
		if err == nil {
			return result, nil
		}
		if !llu.IsTokenExpired(err) || tries >= maxSyncTries {
			return nil, backoff.Permanent(err)
		}

		slog.Info("Session expired, re-authenticating", "account", c.config.Account)
		c.syncMetrics.RecordRelogin(ctx, c.config.Account)
		if reloginErr := c.manager.Relogin(ctx); reloginErr != nil {
			return nil, backoff.Permanent(reloginErr)
		}
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.retryBackOff()),
		backoff.WithMaxTries(maxSyncTries),
	)
}

// notifyPresenter hands the current reading to the presenter.
// Presenter failures never fail the cycle.
func (c *defaultCoordinator) notifyPresenter(ctx context.Context, result *pkgsync.Result) {
	if result.CurrentReading == nil {
		return
	}
	reading := *result.CurrentReading

	if value, ok := reading.MgPerDl(); ok {
		c.readingMetrics.SetLatest(result.ConnectionName, value)
	}

	if c.presenter == nil {
		return
	}

	var err error
	if c.presenter.HasActive() {
		err = c.presenter.Update(ctx, reading)
	} else {
		err = c.presenter.Start(ctx, result.ConnectionName, reading)
	}
	if err != nil {
		slog.Warn("Failed to update presentation", "account", c.config.Account, "error", err)
	}
}

func (c *defaultCoordinator) loadStatus(ctx context.Context) *status.SyncStatus {
	syncStatus, err := c.statusPersistence.LoadStatus(ctx, c.config.Account)
	if err != nil {
		slog.Warn("Failed to load sync status, starting fresh", "account", c.config.Account, "error", err)
		return &status.SyncStatus{}
	}
	if syncStatus == nil {
		return &status.SyncStatus{}
	}
	return syncStatus
}

func (c *defaultCoordinator) saveStatus(ctx context.Context, syncStatus *status.SyncStatus) {
	if err := c.statusPersistence.SaveStatus(context.WithoutCancel(ctx), c.config.Account, syncStatus); err != nil {
		slog.Error("Error updating sync status", "account", c.config.Account, "error", err)
	}
}
