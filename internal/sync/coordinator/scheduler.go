package coordinator

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"
)

// ErrSchedulerClosed is returned when scheduling on a closed TimerScheduler
var ErrSchedulerClosed = errors.New("scheduler is closed")

// ExecutionGrant reports whether the host lets the process run unattended
type ExecutionGrant interface {
	ContinuousAllowed() bool
}

// GrantFunc adapts a function to ExecutionGrant
type GrantFunc func() bool

// ContinuousAllowed implements ExecutionGrant
func (f GrantFunc) ContinuousAllowed() bool {
	return f()
}

// HostScheduler requests a single deferred invocation from the host.
// The host invokes the coordinator's HandleInvocation no earlier than earliest.
type HostScheduler interface {
	Schedule(ctx context.Context, earliest time.Time) error
}

// InvocationFunc handles one host invocation
type InvocationFunc func(ctx context.Context) error

// TimerScheduler is an in-process HostScheduler. At most one invocation is
// pending; scheduling again replaces it. Each invocation runs with a hard deadline.
type TimerScheduler struct {
	deadline time.Duration

	mu      gosync.Mutex
	handler InvocationFunc
	timer   *time.Timer
	root    context.Context
	cancel  context.CancelFunc
	running gosync.WaitGroup
}

// NewTimerScheduler creates a scheduler whose invocations are cancelled after deadline
func NewTimerScheduler(deadline time.Duration) *TimerScheduler {
	root, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{deadline: deadline, root: root, cancel: cancel}
}

// Handle sets the function run on each invocation
func (s *TimerScheduler) Handle(fn InvocationFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// Schedule implements HostScheduler
func (s *TimerScheduler) Schedule(_ context.Context, earliest time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root.Err() != nil {
		return ErrSchedulerClosed
	}
	if s.handler == nil {
		return errors.New("no invocation handler registered")
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	handler := s.handler
	s.timer = time.AfterFunc(time.Until(earliest), func() {
		s.mu.Lock()
		if s.root.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.running.Add(1)
		s.mu.Unlock()
		defer s.running.Done()

		ctx, cancel := context.WithTimeout(s.root, s.deadline)
		defer cancel()
		if err := handler(ctx); err != nil {
			slog.Error("Scheduled invocation failed", "error", err)
		}
	})
	slog.Debug("Scheduled next invocation", "earliest", earliest)
	return nil
}

// Close cancels the pending invocation and any in-flight one, then waits for it to return
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	s.cancel()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.running.Wait()
}
