// Package state holds the per-monitor status transition function. It is
// pure: the scheduler owns the RuntimeState value and feeds outcomes in.
package state

import (
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/probe"
)

// Apply folds one probe outcome into the runtime state and returns the new
// state plus whether the public status changed.
//
// Failure hysteresis: a failed probe flips the status to down only once the
// consecutive-failure count reaches RetriesBeforeDown, where 0 means down on
// the first failure. Recovery has no grace period: the first success after
// down moves straight to up or degraded by the latency threshold.
func Apply(st domain.RuntimeState, m domain.Monitor, out probe.Outcome, at time.Time) (domain.RuntimeState, bool) {
	prev := st.Status
	st.LastCheckedAt = at
	st.LastResponseTimeMS = out.LatencyMS

	if out.Success {
		st.ConsecutiveFailures = 0
		st.ConsecutiveSuccesses++
		st.LastError = ""
		if out.LatencyMS > m.DegradedThresholdMS {
			st.Status = domain.StatusDegraded
		} else {
			st.Status = domain.StatusUp
		}
		return st, st.Status != prev
	}

	st.ConsecutiveSuccesses = 0
	st.ConsecutiveFailures++
	st.LastError = out.Detail
	if st.ConsecutiveFailures >= m.RetriesBeforeDown {
		st.Status = domain.StatusDown
	}
	return st, st.Status != prev
}

// ExitMaintenance moves a monitor whose window just closed back to pending.
// The successor status is decided by the next probe that actually runs.
func ExitMaintenance(st domain.RuntimeState) domain.RuntimeState {
	if st.Status == domain.StatusMaintenance {
		st.Status = domain.StatusPending
	}
	return st
}

// Maintenance forces the maintenance status without touching the failure
// and success counters; probes are skipped while the window is open, so
// there is no outcome to count.
func Maintenance(st domain.RuntimeState, at time.Time) (domain.RuntimeState, bool) {
	prev := st.Status
	st.Status = domain.StatusMaintenance
	st.LastCheckedAt = at
	return st, st.Status != prev
}
