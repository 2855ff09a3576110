package domain

import "time"

// RuntimeState is the live, per-monitor state owned by that monitor's
// scheduling loop. It is created pending when the monitor is enabled and
// discarded on disable; aggregates survive across re-enables.
type RuntimeState struct {
	MonitorID            MonitorID `json:"monitor_id"`
	Status               Status    `json:"status"`
	ConsecutiveFailures  int       `json:"consecutive_failures"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	LastCheckedAt        time.Time `json:"last_checked_at"`
	LastResponseTimeMS   float64   `json:"last_response_time_ms"`
	LastError            string    `json:"last_error,omitempty"`
}

// NewRuntimeState is the initial state for a freshly enabled monitor.
func NewRuntimeState(id MonitorID) RuntimeState {
	return RuntimeState{MonitorID: id, Status: StatusPending}
}

// StatusEvent is published to the host application whenever a monitor's
// classified status changes.
type StatusEvent struct {
	MonitorID      MonitorID `json:"monitor_id"`
	Status         Status    `json:"status"`
	ResponseTimeMS float64   `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// HourlyAggregate is the per-monitor, per-UTC-hour rollup backing the
// uptime bars. AvgResponseTimeMS is a running mean over the non-maintenance
// checks in the bucket that produced a latency measurement.
type HourlyAggregate struct {
	MonitorID         MonitorID `json:"monitor_id"`
	Bucket            time.Time `json:"bucket"` // truncated to the hour, UTC
	ChecksUp          int       `json:"checks_up"`
	ChecksDown        int       `json:"checks_down"`
	ChecksDegraded    int       `json:"checks_degraded"`
	ChecksMaintenance int       `json:"checks_maintenance"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	LatencySamples    int       `json:"latency_samples"`
}

// HourBucket maps an instant to its aggregate bucket.
func HourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// Share grants a user visibility into a monitor's live status and history.
type Share struct {
	MonitorID MonitorID `json:"monitor_id"`
	UserID    string    `json:"user_id"`
}
