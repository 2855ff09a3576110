// Package scheduler owns one independent timer loop per enabled monitor.
// Monitors never block one another: each runner is its own goroutine, owns
// its RuntimeState exclusively, and the aggregate store is the only
// resource they share.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/probe"
	"github.com/Framerrr/framerr-monitor/internal/publish"
	"github.com/Framerrr/framerr-monitor/internal/repo"
)

type Config struct {
	Defaults domain.Defaults

	// Retention bounds how long hourly aggregates are kept; zero disables
	// the janitor.
	Retention  time.Duration
	PruneEvery time.Duration
}

type Engine struct {
	log        *zap.Logger
	aggregates repo.AggregateStore
	prober     probe.Prober
	sink       publish.Sink
	cfg        Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	runners map[domain.MonitorID]*runner
	states  map[domain.MonitorID]domain.RuntimeState
	closed  bool
}

func New(log *zap.Logger, aggregates repo.AggregateStore, prober probe.Prober, sink publish.Sink, cfg Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		log:        log,
		aggregates: aggregates,
		prober:     prober,
		sink:       sink,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		runners:    make(map[domain.MonitorID]*runner),
		states:     make(map[domain.MonitorID]domain.RuntimeState),
	}
	if cfg.Retention > 0 {
		e.wg.Add(1)
		go e.janitor()
	}
	return e
}

// Load registers a batch of stored monitors at startup. Monitors that fail
// validation are logged and skipped; they must not prevent the rest from
// being scheduled.
func (e *Engine) Load(monitors []domain.Monitor) {
	for _, m := range monitors {
		if err := e.Upsert(m); err != nil {
			e.log.Warn("monitor_skipped",
				zap.String("monitor_id", string(m.ID)),
				zap.Error(err),
			)
		}
	}
}

// Upsert registers a new or changed monitor definition and (re)arms its
// timer without touching any other monitor. A disabled monitor's runner is
// stopped and its runtime state discarded; re-enabling starts fresh at
// pending. Returns a ConfigurationError for definitions the engine cannot
// run — the monitor is left unscheduled in that case.
func (e *Engine) Upsert(m domain.Monitor) error {
	m.Normalize(e.cfg.Defaults)
	if err := m.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	if !m.Enabled {
		e.stopLocked(m.ID)
		return nil
	}

	if r, ok := e.runners[m.ID]; ok {
		r.update(m)
		return nil
	}

	r := newRunner(e, m)
	e.runners[m.ID] = r
	e.states[m.ID] = domain.NewRuntimeState(m.ID)
	e.wg.Add(1)
	go r.run()
	e.log.Info("monitor_armed",
		zap.String("monitor_id", string(m.ID)),
		zap.String("type", string(m.Type)),
		zap.Int("interval_seconds", m.IntervalSeconds),
	)
	return nil
}

// Remove cancels the monitor's timer and in-flight probe and drops its
// runtime state. Aggregates are kept.
func (e *Engine) Remove(id domain.MonitorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked(id)
}

// SetEnabled toggles a registered monitor without changing its definition.
// Stopping a monitor discards its definition along with its runtime state,
// so an unregistered id is an error: re-enabling goes through Upsert with
// the stored definition.
func (e *Engine) SetEnabled(id domain.MonitorID, enabled bool) error {
	e.mu.Lock()
	r, ok := e.runners[id]
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("monitor %s is not registered, use Upsert", id)
	}
	m := r.def()
	m.Enabled = enabled
	return e.Upsert(m)
}

func (e *Engine) stopLocked(id domain.MonitorID) {
	if r, ok := e.runners[id]; ok {
		r.stop()
		delete(e.runners, id)
	}
	delete(e.states, id)
}

// State returns the runtime snapshot for one monitor.
func (e *Engine) State(id domain.MonitorID) (domain.RuntimeState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[id]
	return st, ok
}

// States returns runtime snapshots for all scheduled monitors.
func (e *Engine) States() []domain.RuntimeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.RuntimeState, 0, len(e.states))
	for _, st := range e.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonitorID < out[j].MonitorID })
	return out
}

// TestNow runs a single synchronous probe for an ad-hoc definition. It
// touches no runtime state and no aggregates; the raw outcome (including
// the failure reason) goes straight back to the caller.
func (e *Engine) TestNow(ctx context.Context, m domain.Monitor) (probe.Outcome, error) {
	m.Normalize(e.cfg.Defaults)
	if err := m.Validate(); err != nil {
		return probe.Outcome{}, err
	}
	pctx, cancel := context.WithTimeout(ctx, m.Timeout())
	defer cancel()
	return e.prober.Probe(pctx, m), nil
}

// Close stops every runner and waits for in-flight probes to unwind.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	e.log.Info("scheduler_stopped")
}

// setState stores a runner's snapshot. Writes for a monitor that has been
// stopped are dropped, so a probe finishing after disable cannot land
// stale state.
func (e *Engine) setState(st domain.RuntimeState) {
	e.mu.Lock()
	if _, ok := e.states[st.MonitorID]; ok {
		e.states[st.MonitorID] = st
	}
	e.mu.Unlock()
}

func (e *Engine) record(ctx context.Context, id domain.MonitorID, at time.Time, status domain.Status, latencyMS *float64) {
	if err := e.aggregates.Record(ctx, id, at, status, latencyMS); err != nil {
		e.log.Warn("aggregate_record_error",
			zap.String("monitor_id", string(id)),
			zap.Error(err),
		)
	}
}

func (e *Engine) publish(ctx context.Context, ev domain.StatusEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, ev); err != nil {
		e.log.Warn("publish_error",
			zap.String("monitor_id", string(ev.MonitorID)),
			zap.Error(err),
		)
	}
}

// janitor prunes aggregate buckets past the retention horizon.
func (e *Engine) janitor() {
	defer e.wg.Done()
	every := e.cfg.PruneEvery
	if every <= 0 {
		every = time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-t.C:
			cutoff := time.Now().UTC().Add(-e.cfg.Retention)
			if err := e.aggregates.Prune(e.ctx, cutoff); err != nil {
				e.log.Warn("aggregate_prune_error", zap.Error(err))
			}
		}
	}
}
