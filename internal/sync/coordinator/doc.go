// Package coordinator drives the sync pipeline in the background.
//
// It sits on top of sync.Manager and decides when a cycle runs:
//
//   - Continuous mode: a cooperative loop of cycle, then wait for the
//     interval, until the context is cancelled. Cycle failures are recorded
//     and logged but never stop the loop.
//   - Single-shot mode: the coordinator asks a HostScheduler for one deferred
//     invocation. Every invocation first schedules the next one and then runs
//     a single cycle under the host's deadline.
//
// Which mode runs is decided at Start from the configured mode and, in auto
// mode, the ExecutionGrant supplied by the host.
//
// Every cycle goes through RunOnce, which takes the per-account sync lock,
// re-authenticates once when the session token has expired, persists the
// resulting status, records metrics and hands the current reading to the
// presenter.
//
// # Usage
//
//	sched := coordinator.NewTimerScheduler(cfg.InvocationDeadline)
//	coord := coordinator.New(manager, statusPersistence, cfg,
//	    coordinator.WithScheduler(sched),
//	    coordinator.WithPresenter(live),
//	)
//	sched.Handle(coord.HandleInvocation)
//
//	go func() { _ = coord.Start(ctx) }()
//	defer coord.Stop()
package coordinator
