package repo

import (
	"context"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

// Ports (interfaces) — swap in any store adapter.

// MonitorStore persists monitor definitions. The host application drives
// CRUD; the engine reads definitions back on startup and config reload.
type MonitorStore interface {
	Put(ctx context.Context, m domain.Monitor) error
	// Get returns nil, nil when the monitor does not exist.
	Get(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error)
	List(ctx context.Context) ([]domain.Monitor, error)
	Delete(ctx context.Context, id domain.MonitorID) error
}

// AggregateStore rolls completed checks into per-hour buckets. Record must
// be atomic per bucket: the scheduler serializes calls per monitor, but
// historical queries read concurrently.
type AggregateStore interface {
	// Record increments the bucket counter matching status. latencyMS is
	// non-nil for checks that produced a measurement; maintenance ticks
	// never contribute to the running average.
	Record(ctx context.Context, id domain.MonitorID, bucket time.Time, status domain.Status, latencyMS *float64) error
	Range(ctx context.Context, id domain.MonitorID, from, to time.Time) ([]domain.HourlyAggregate, error)
	// Prune drops buckets older than the cutoff.
	Prune(ctx context.Context, olderThan time.Time) error
}

// ShareStore holds the pre-resolved visibility grants per monitor.
type ShareStore interface {
	Allowed(ctx context.Context, id domain.MonitorID, userID string) (bool, error)
	// SetShares replaces the share set for a monitor.
	SetShares(ctx context.Context, id domain.MonitorID, userIDs []string) error
}

// Store bundles the three ports the engine needs.
type Store interface {
	MonitorStore
	AggregateStore
	ShareStore
}
