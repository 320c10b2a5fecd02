package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/wuweimonitor/internal/crawler"
	"sjsage522/wuweimonitor/logger"
	"sjsage522/wuweimonitor/pkg/errors"
)

// DefaultFreshnessWindow is how long a batch is served before it is refreshed
const DefaultFreshnessWindow = 600 * time.Second

// Collector assembles a complete product batch
type Collector interface {
	Collect(ctx context.Context) ([]crawler.ProductRecord, error)
}

// RefreshHook is called with every newly stored snapshot
type RefreshHook func(ctx context.Context, snap Snapshot)

// Option configures a Monitor
type Option func(*Monitor)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMetrics records refresh metrics
func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// WithHooks adds refresh hooks, run in order after each successful refresh
func WithHooks(hooks ...RefreshHook) Option {
	return func(m *Monitor) { m.hooks = append(m.hooks, hooks...) }
}

// WithLogger replaces the monitor logger
func WithLogger(l *logger.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// Monitor caches the latest product batch. Reads are served from the cache
// while it is fresh; a stale or empty cache is refreshed synchronously
// before returning. Refreshes are serialized and the batch and its
// timestamp are swapped together, so a failed refresh leaves the previous
// snapshot in place.
type Monitor struct {
	collector Collector
	window    time.Duration
	now       func() time.Time
	metrics   *Metrics
	hooks     []RefreshHook
	log       *logger.Logger

	refreshMu sync.Mutex

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a monitor with an empty cache
func New(collector Collector, window time.Duration, opts ...Option) *Monitor {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	m := &Monitor{
		collector: collector,
		window:    window,
		now:       time.Now,
		log:       logger.ForMonitor(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the cached snapshot without refreshing
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.clone()
}

// IsStale reports whether the next Read will trigger a refresh
func (m *Monitor) IsStale() bool {
	_, fresh := m.freshSnapshot()
	return !fresh
}

func (m *Monitor) freshSnapshot() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if len(s.Products) == 0 || s.LastUpdate.IsZero() || m.now().Sub(s.LastUpdate) > m.window {
		return Snapshot{}, false
	}
	return s.clone(), true
}

// Read returns the cached batch, refreshing it first when stale. When that
// refresh fails the previous snapshot is returned together with the error.
func (m *Monitor) Read(ctx context.Context) (Snapshot, error) {
	if snap, ok := m.freshSnapshot(); ok {
		return snap, nil
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Another reader may have refreshed while we waited for the lock
	if snap, ok := m.freshSnapshot(); ok {
		return snap, nil
	}

	snap, err := m.refreshLocked(ctx)
	if err != nil {
		return m.Snapshot(), err
	}
	return snap, nil
}

// ForceRefresh rebuilds the batch regardless of its age
func (m *Monitor) ForceRefresh(ctx context.Context) (Snapshot, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	return m.refreshLocked(ctx)
}

// refreshLocked must be called with refreshMu held
func (m *Monitor) refreshLocked(ctx context.Context) (Snapshot, error) {
	start := m.now()

	records, err := m.collect(ctx)
	elapsed := m.now().Sub(start).Seconds()
	if err != nil {
		m.metrics.observeFailure(elapsed)
		m.log.Error().Err(err).Msg("Refresh failed, keeping previous batch")
		return Snapshot{}, err
	}

	snap := Snapshot{Products: records, LastUpdate: m.now()}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	m.metrics.observeSuccess(snap, elapsed)

	summary := snap.Summary()
	m.log.Info().
		Int("total", summary.TotalCount).
		Int("targets", summary.TargetCount).
		Float64("seconds", elapsed).
		Msg("Refreshed product batch")

	m.runHooks(ctx, snap)
	return snap.clone(), nil
}

// collect turns a panic inside the pipeline into a refresh error
func (m *Monitor) collect(ctx context.Context) (records []crawler.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = errors.NewRefresh("refresh pipeline panicked", fmt.Errorf("%v", r))
		}
	}()

	records, err = m.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []crawler.ProductRecord{}
	}
	return records, nil
}

func (m *Monitor) runHooks(ctx context.Context, snap Snapshot) {
	for i, hook := range m.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().Int("hook", i).Interface("panic", r).Msg("Refresh hook panicked")
				}
			}()
			hook(ctx, snap.clone())
		}()
	}
}
