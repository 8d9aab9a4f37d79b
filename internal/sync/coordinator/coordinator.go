package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/lhs-project/libre-health-sync/internal/presenter"
	"github.com/lhs-project/libre-health-sync/internal/status"
	pkgsync "github.com/lhs-project/libre-health-sync/internal/sync"
	"github.com/lhs-project/libre-health-sync/internal/sync/lock"
	"github.com/lhs-project/libre-health-sync/internal/telemetry"
)

// ErrInvocationExpired is returned when the host deadline cancels a single-shot cycle
var ErrInvocationExpired = errors.New("invocation deadline expired before the sync cycle finished")

// Coordinator manages background sync execution for one account
type Coordinator interface {
	// Start runs the coordinator in the resolved mode.
	// Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels Start and waits for it to return
	Stop() error

	// RunOnce performs a single guarded sync cycle
	RunOnce(ctx context.Context) (*pkgsync.Result, error)

	// HandleInvocation is the single-shot entry point called by the host
	HandleInvocation(ctx context.Context) error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager pkgsync.Manager
	config  Config

	statusPersistence status.StatusPersistence
	presenter         presenter.Presenter
	grant             ExecutionGrant
	scheduler         HostScheduler
	lock              *lock.AccountLock

	syncMetrics    *telemetry.SyncMetrics
	readingMetrics *telemetry.ReadingMetrics

	retryBackOff func() backoff.BackOff
	now          func() time.Time

	// Lifecycle management
	mu         gosync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithReadingMetrics sets the glucose gauge updated after each cycle
func WithReadingMetrics(metrics *telemetry.ReadingMetrics) Option {
	return func(c *defaultCoordinator) {
		c.readingMetrics = metrics
	}
}

// WithPresenter sets the presenter notified of current readings
func WithPresenter(p presenter.Presenter) Option {
	return func(c *defaultCoordinator) {
		c.presenter = p
	}
}

// WithExecutionGrant sets the capability consulted in auto mode
func WithExecutionGrant(grant ExecutionGrant) Option {
	return func(c *defaultCoordinator) {
		c.grant = grant
	}
}

// WithScheduler sets the host scheduler used in single-shot mode
func WithScheduler(scheduler HostScheduler) Option {
	return func(c *defaultCoordinator) {
		c.scheduler = scheduler
	}
}

// WithRetryBackOff sets the backoff between the expired cycle and its retry
func WithRetryBackOff(fn func() backoff.BackOff) Option {
	return func(c *defaultCoordinator) {
		c.retryBackOff = fn
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *defaultCoordinator) {
		c.now = now
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	statusPersistence status.StatusPersistence,
	cfg Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:           manager,
		config:            cfg,
		statusPersistence: statusPersistence,
		retryBackOff:      defaultRetryBackOff,
		now:               time.Now,
	}
	if cfg.DataDir != "" {
		c.lock = lock.New(cfg.DataDir, cfg.Account)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start runs the continuous loop or arms the single-shot fallback
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return errors.New("coordinator already started")
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	defer func() {
		cancel()
		close(done)
		slog.Info("Background sync coordinator shutting down", "account", c.config.Account)
	}()

	mode := resolveMode(c.config.Mode, c.grant)
	slog.Info("Starting background sync coordinator",
		"account", c.config.Account,
		"configured_mode", c.config.Mode,
		"mode", mode)

	if mode == ModeSingleShot {
		return c.runSingleShot(coordCtx)
	}
	c.runContinuous(coordCtx)
	return nil
}

// runContinuous loops until cancelled. Cancellation is checked before each
// cycle and while waiting; an in-flight cycle is never interrupted by it.
func (c *defaultCoordinator) runContinuous(ctx context.Context) {
	slog.Info("Configured coordinator sync interval", "interval", c.config.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sync coordinator stopping")
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			slog.Info("Sync coordinator stopping")
			return
		}

		if _, err := c.RunOnce(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Sync cycle failed, will retry on next interval",
				"account", c.config.Account,
				"error", err)
		}

		if ctx.Err() != nil {
			slog.Info("Sync coordinator stopping")
			return
		}
		timer.Reset(c.config.Interval)
	}
}

// runSingleShot requests the first invocation and waits for shutdown.
// Later invocations are requested by HandleInvocation itself.
func (c *defaultCoordinator) runSingleShot(ctx context.Context) error {
	if err := c.scheduleNext(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("Sync coordinator stopping")
	return nil
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-done
	}
	return nil
}

// HandleInvocation re-arms the next invocation first so that a slow or
// failing cycle never forfeits it, then runs one cycle under ctx's deadline.
func (c *defaultCoordinator) HandleInvocation(ctx context.Context) error {
	if err := c.scheduleNext(ctx); err != nil {
		slog.Error("Failed to schedule next invocation", "account", c.config.Account, "error", err)
	}

	_, err := c.RunOnce(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrInvocationExpired, err)
	}
	return err
}

func (c *defaultCoordinator) scheduleNext(ctx context.Context) error {
	if c.scheduler == nil {
		return errors.New("single-shot mode requires a host scheduler")
	}
	earliest := c.now().Add(c.config.FallbackDelay)
	if err := c.scheduler.Schedule(ctx, earliest); err != nil {
		return fmt.Errorf("failed to schedule invocation: %w", err)
	}
	return nil
}
