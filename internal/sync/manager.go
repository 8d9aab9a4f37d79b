package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/otel"
	"github.com/lhs-project/libre-health-sync/internal/remote"
	"github.com/lhs-project/libre-health-sync/internal/sync/state"
	"github.com/lhs-project/libre-health-sync/internal/sync/writer"
)

// Result contains the outcome of one sync cycle
type Result struct {
	// ForwardedCount is the number of new readings handed to the sink
	ForwardedCount int
	// AcceptedCount is what the sink reported as newly stored
	AcceptedCount int
	// CurrentReading is the connection's latest reading, reported apart from history
	CurrentReading *llu.Reading
	// AllReadings is the history in ascending timestamp order. It never contains CurrentReading
	// unless the service also returned it in history.
	AllReadings []llu.Reading
	// ConnectionName is the display name of the synced connection
	ConnectionName string
	// Watermark is the stored watermark after the cycle, empty when none exists
	Watermark string
}

// Stage names the pipeline step an Error came from
type Stage string

// Pipeline stages
const (
	StageFetchConnections Stage = "fetch-connections"
	StageFetchHistory     Stage = "fetch-history"
	StageLoadWatermark    Stage = "load-watermark"
	StageWrite            Stage = "write"
	StageStoreWatermark   Stage = "store-watermark"
)

// Error is a pipeline failure tagged with the stage it happened in
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of a pipeline error, or "" for other errors
func StageOf(err error) Stage {
	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr.Stage
	}
	return ""
}

// ReloginFunc re-authenticates the remote session from stored credentials
type ReloginFunc func(ctx context.Context) error

// Manager runs sync cycles for one account
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/lhs-project/libre-health-sync/internal/sync Manager
type Manager interface {
	// PerformSync runs one fetch, merge, dedupe and forward cycle.
	// It never retries; an expired token surfaces as an authentication error.
	PerformSync(ctx context.Context) (*Result, error)

	// Relogin re-authenticates so a failed cycle can be run again
	Relogin(ctx context.Context) error
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	account    string
	provider   remote.DataProvider
	sink       writer.ReadingWriter
	watermarks state.WatermarkStore
	relogin    ReloginFunc
	tracer     trace.Tracer

	// one cycle at a time per manager
	mu gosync.Mutex
}

// Option configures the sync manager
type Option func(*defaultSyncManager)

// WithReloginFunc sets the re-authentication callback used by Relogin
func WithReloginFunc(fn ReloginFunc) Option {
	return func(m *defaultSyncManager) {
		m.relogin = fn
	}
}

// WithTracer sets the tracer used for cycle spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// NewDefaultSyncManager creates a Manager for account
func NewDefaultSyncManager(
	account string,
	provider remote.DataProvider,
	sink writer.ReadingWriter,
	watermarks state.WatermarkStore,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		account:    account,
		provider:   provider,
		sink:       sink,
		watermarks: watermarks,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *defaultSyncManager) Relogin(ctx context.Context) error {
	if m.relogin == nil {
		return &llu.AuthenticationError{Reason: "re-authentication is not configured"}
	}
	return m.relogin(ctx)
}

func (m *defaultSyncManager) PerformSync(ctx context.Context) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.perform", otel.AttrAccount.String(m.account))
	defer span.End()

	result, err := m.performSync(ctx, span)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		otel.AttrConnectionName.String(result.ConnectionName),
		otel.AttrForwardedCount.Int(result.ForwardedCount),
	)
	return result, nil
}

func (m *defaultSyncManager) performSync(ctx context.Context, span trace.Span) (*Result, error) {
	connections, err := m.provider.FetchConnections(ctx)
	if err != nil {
		return nil, &Error{Stage: StageFetchConnections, Err: err}
	}
	if len(connections) == 0 {
		return nil, &Error{Stage: StageFetchConnections, Err: llu.ErrNoData}
	}
	if len(connections) > 1 {
		slog.Debug("Account follows several connections, syncing the first",
			"account", m.account, "connections", len(connections))
	}
	connection := connections[0]

	batch, err := m.provider.FetchHistory(ctx, connection.HistoryKey())
	if err != nil {
		return nil, &Error{Stage: StageFetchHistory, Err: err}
	}

	current := batch.CurrentReading()
	if current == nil {
		current = connection.LatestReading()
	}

	history := SortReadings(batch.GraphData)
	candidates := Candidates(history, current)
	span.SetAttributes(
		otel.AttrHistoryCount.Int(len(history)),
		otel.AttrCandidateCount.Int(len(candidates)),
	)

	watermark, hasWatermark, err := m.watermarks.GetWatermark(ctx, m.account)
	if err != nil {
		return nil, &Error{Stage: StageLoadWatermark, Err: err}
	}

	fresh := FilterNew(candidates, watermark, hasWatermark)

	result := &Result{
		ForwardedCount: len(fresh),
		CurrentReading: current,
		AllReadings:    history,
		ConnectionName: connection.DisplayName(),
	}
	if hasWatermark {
		result.Watermark = watermark
	}

	if len(fresh) == 0 {
		slog.Debug("No new readings", "account", m.account, "candidates", len(candidates))
		return result, nil
	}

	accepted, err := m.sink.Write(ctx, m.account, fresh)
	if err != nil {
		return nil, &Error{Stage: StageWrite, Err: err}
	}
	result.AcceptedCount = accepted

	if next, ok := AdvanceWatermark(fresh, watermark, hasWatermark); ok {
		if err := m.watermarks.SetWatermark(ctx, m.account, next); err != nil {
			return nil, &Error{Stage: StageStoreWatermark, Err: err}
		}
		result.Watermark = next
	}

	slog.Info("Forwarded readings",
		"account", m.account,
		"connection", result.ConnectionName,
		"forwarded", result.ForwardedCount,
		"accepted", accepted,
		"watermark", result.Watermark)
	return result, nil
}
