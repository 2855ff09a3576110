package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/maintenance"
	"github.com/Framerrr/framerr-monitor/internal/probe"
	"github.com/Framerrr/framerr-monitor/internal/state"
)

// runner is the scheduling loop for one monitor. It exclusively owns that
// monitor's RuntimeState; everything it shares with the rest of the engine
// goes through Engine methods.
type runner struct {
	eng    *Engine
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	monitor domain.Monitor
}

func newRunner(e *Engine, m domain.Monitor) *runner {
	ctx, cancel := context.WithCancel(e.ctx)
	return &runner{eng: e, ctx: ctx, cancel: cancel, monitor: m}
}

// update swaps in a changed definition. It takes effect on the next tick;
// the new interval is used when that tick re-arms.
func (r *runner) update(m domain.Monitor) {
	r.mu.Lock()
	r.monitor = m
	r.mu.Unlock()
}

func (r *runner) def() domain.Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitor
}

func (r *runner) stop() { r.cancel() }

func (r *runner) run() {
	defer r.eng.wg.Done()

	st := domain.NewRuntimeState(r.def().ID)

	// First tick runs immediately; afterwards the cadence is anchored at
	// each tick's start so probe latency does not drift the schedule.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		}

		tickStart := time.Now()
		m := r.def()

		next, ok := r.tick(&st, m, tickStart)
		if !ok {
			return
		}
		timer.Reset(next)
	}
}

// tick executes one check cycle and returns the delay until the next one.
// ok is false when the runner was cancelled mid-tick and must exit without
// writing anything.
func (r *runner) tick(st *domain.RuntimeState, m domain.Monitor, tickStart time.Time) (time.Duration, bool) {
	now := tickStart.UTC()

	if maintenance.Active(m.Maintenance, tickStart) {
		// Probe skipped entirely: failures during a declared window must
		// not count against the retry budget.
		next, changed := state.Maintenance(*st, now)
		*st = next
		r.eng.setState(*st)
		r.eng.record(r.ctx, m.ID, now, domain.StatusMaintenance, nil)
		if changed {
			r.publishChange(*st)
		}
		return r.rearm(m, tickStart), true
	}

	// Compare against the status the tick started with, not the one after
	// leaving maintenance: the window closing is itself a public change and
	// must publish even when the first probe keeps the successor at pending.
	prev := st.Status
	*st = state.ExitMaintenance(*st)

	pctx, cancel := context.WithTimeout(r.ctx, m.Timeout())
	out := r.eng.prober.Probe(pctx, m)
	cancel()

	// Disabled or removed while the probe was in flight: discard the
	// result, write nothing.
	if r.ctx.Err() != nil {
		return 0, false
	}

	checkedAt := time.Now().UTC()
	next, _ := state.Apply(*st, m, out, checkedAt)
	*st = next
	r.eng.setState(*st)

	var lat *float64
	if out.LatencyMS > 0 {
		lat = &out.LatencyMS
	}
	r.eng.record(r.ctx, m.ID, checkedAt, checkStatus(m, out), lat)

	if st.Status != prev {
		r.publishChange(*st)
	}

	r.eng.log.Debug("monitor_checked",
		zap.String("monitor_id", string(m.ID)),
		zap.String("status", st.Status.String()),
		zap.Bool("success", out.Success),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("detail", out.Detail),
	)

	return r.rearm(m, tickStart), true
}

// rearm computes the delay to the next tick, anchored at tickStart. A
// probe that overran one or more intervals coalesces onto the next
// boundary instead of firing a burst of overdue ticks.
func (r *runner) rearm(m domain.Monitor, tickStart time.Time) time.Duration {
	interval := m.Interval()
	elapsed := time.Since(tickStart)
	delay := interval - elapsed
	if delay <= 0 {
		delay = interval - (elapsed % interval)
	}
	return delay
}

func (r *runner) publishChange(st domain.RuntimeState) {
	r.eng.publish(r.ctx, domain.StatusEvent{
		MonitorID:      st.MonitorID,
		Status:         st.Status,
		ResponseTimeMS: st.LastResponseTimeMS,
		Timestamp:      st.LastCheckedAt,
	})
}

// checkStatus classifies one completed check for aggregation. The bucket
// reflects the check's own outcome, not the hysteresis-damped public
// status: a failed probe counts as a down check even while the monitor
// still has retry budget left.
func checkStatus(m domain.Monitor, out probe.Outcome) domain.Status {
	if !out.Success {
		return domain.StatusDown
	}
	if out.LatencyMS > m.DegradedThresholdMS {
		return domain.StatusDegraded
	}
	return domain.StatusUp
}
