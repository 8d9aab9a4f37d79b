// Package presenter holds the live presentation of the latest reading.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

//go:generate mockgen -destination=mocks/mock_presenter.go -package=mocks -source=presenter.go Presenter

// StaleAfter is how long a presented reading stays fresh
const StaleAfter = 5 * time.Minute

var (
	// ErrNoActivePresentation is returned by Update when nothing was started
	ErrNoActivePresentation = errors.New("no active presentation")
	// ErrUnpresentableReading is returned for readings without a value or a parseable timestamp
	ErrUnpresentableReading = errors.New("reading has no value or timestamp")
)

// Presenter shows the latest reading of the synced connection
type Presenter interface {
	// HasActive reports whether a presentation is running
	HasActive() bool
	// Start begins a presentation for the named connection
	Start(ctx context.Context, name string, reading llu.Reading) error
	// Update replaces the reading of the running presentation
	Update(ctx context.Context, reading llu.Reading) error
	// End stops the presentation
	End(ctx context.Context) error
}

// Presentation is what a live view renders
type Presentation struct {
	ConnectionName string          `json:"connectionName"`
	ValueMgPerDl   float64         `json:"valueMgPerDl"`
	Display        string          `json:"display"`
	Unit           llu.DisplayUnit `json:"unit"`
	Trend          string          `json:"trend"`
	TrendSymbol    string          `json:"trendSymbol"`
	Range          llu.Range       `json:"range"`
	ReadingTime    time.Time       `json:"readingTime"`
	StartedAt      time.Time       `json:"startedAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	StaleAt        time.Time       `json:"staleAt"`
	Stale          bool            `json:"stale"`
}

// Live is an in-memory Presenter
type Live struct {
	unit llu.DisplayUnit
	now  func() time.Time

	mu      sync.RWMutex
	current *Presentation
}

// LiveOption configures a Live presenter
type LiveOption func(*Live)

// WithClock overrides the time source
func WithClock(now func() time.Time) LiveOption {
	return func(l *Live) {
		l.now = now
	}
}

// NewLive creates a presenter rendering values in unit
func NewLive(unit llu.DisplayUnit, opts ...LiveOption) *Live {
	l := &Live{unit: unit, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HasActive reports whether a presentation is running
func (l *Live) HasActive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current != nil
}

// Start begins a presentation, replacing any running one
func (l *Live) Start(_ context.Context, name string, reading llu.Reading) error {
	now := l.now()
	p, err := l.render(reading, now)
	if err != nil {
		return err
	}
	p.ConnectionName = name
	p.StartedAt = now

	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = p
	return nil
}

// Update replaces the reading of the running presentation
func (l *Live) Update(_ context.Context, reading llu.Reading) error {
	now := l.now()
	p, err := l.render(reading, now)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return ErrNoActivePresentation
	}
	p.ConnectionName = l.current.ConnectionName
	p.StartedAt = l.current.StartedAt
	l.current = p
	return nil
}

// End stops the presentation. Ending when nothing runs is not an error.
func (l *Live) End(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = nil
	return nil
}

// Snapshot returns a copy of the running presentation with Stale evaluated now
func (l *Live) Snapshot() (Presentation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return Presentation{}, false
	}
	p := *l.current
	p.Stale = !l.now().Before(p.StaleAt)
	return p, true
}

func (l *Live) render(reading llu.Reading, now time.Time) (*Presentation, error) {
	value, ok := reading.MgPerDl()
	if !ok {
		return nil, ErrUnpresentableReading
	}
	readingTime, err := reading.ParsedTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnpresentableReading, err)
	}

	trend := reading.Trend()
	return &Presentation{
		ValueMgPerDl: value,
		Display:      l.unit.Format(value),
		Unit:         l.unit,
		Trend:        trend.String(),
		TrendSymbol:  trend.Symbol(),
		Range:        llu.Classify(value),
		ReadingTime:  readingTime,
		UpdatedAt:    now,
		StaleAt:      now.Add(StaleAfter),
	}, nil
}
