package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.db")
	s, err := New(context.Background(), path, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_MonitorRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := domain.Monitor{
		ID:                  "m1",
		OwnerID:             "owner",
		Type:                domain.TypeHTTP,
		Target:              "https://example.com",
		Enabled:             true,
		IntervalSeconds:     60,
		TimeoutSeconds:      10,
		RetriesBeforeDown:   3,
		DegradedThresholdMS: 1500,
		ExpectedStatusCodes: "200-299",
		Maintenance: &domain.MaintenanceSchedule{
			Enabled:  true,
			Freq:     domain.FreqWeekly,
			Weekdays: []time.Weekday{time.Friday},
			Start:    domain.ClockTime{Hour: 23},
			End:      domain.ClockTime{Hour: 1},
		},
	}
	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "m1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %+v", err, got)
	}
	if got.Target != m.Target || got.ExpectedStatusCodes != m.ExpectedStatusCodes {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.Maintenance == nil || got.Maintenance.Freq != domain.FreqWeekly || got.Maintenance.Start.Hour != 23 {
		t.Fatalf("schedule lost in round-trip: %+v", got.Maintenance)
	}

	// Upsert replaces, never duplicates.
	m.Target = "https://example.com/health"
	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("put again: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list after upsert: %v %+v", err, list)
	}
	if list[0].Target != "https://example.com/health" {
		t.Fatalf("upsert did not replace: %+v", list[0])
	}

	if missing, err := s.Get(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("want nil,nil for unknown id, got %v %v", missing, err)
	}

	if err := s.Delete(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.Get(ctx, "m1"); got != nil {
		t.Fatalf("monitor survived delete")
	}
}

func TestSQLite_RecordUpsertsRunningAverage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	hour := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	lat := func(v float64) *float64 { return &v }

	_ = s.Record(ctx, "m1", hour.Add(1*time.Minute), domain.StatusUp, lat(100))
	_ = s.Record(ctx, "m1", hour.Add(2*time.Minute), domain.StatusUp, lat(200))
	_ = s.Record(ctx, "m1", hour.Add(3*time.Minute), domain.StatusDegraded, lat(600))
	_ = s.Record(ctx, "m1", hour.Add(4*time.Minute), domain.StatusDown, nil)
	_ = s.Record(ctx, "m1", hour.Add(5*time.Minute), domain.StatusMaintenance, nil)

	rows, err := s.Range(ctx, "m1", hour, hour)
	if err != nil || len(rows) != 1 {
		t.Fatalf("range: %v %+v", err, rows)
	}
	agg := rows[0]
	if agg.ChecksUp != 2 || agg.ChecksDegraded != 1 || agg.ChecksDown != 1 || agg.ChecksMaintenance != 1 {
		t.Fatalf("counters wrong: %+v", agg)
	}
	if agg.LatencySamples != 3 || math.Abs(agg.AvgResponseTimeMS-300) > 1e-9 {
		t.Fatalf("running mean wrong: %+v", agg)
	}
	if !agg.Bucket.Equal(hour) {
		t.Fatalf("bucket wrong: %v", agg.Bucket)
	}
}

func TestSQLite_RangeBoundsAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_ = s.Record(ctx, "m1", base.Add(time.Duration(i)*time.Hour), domain.StatusUp, nil)
	}
	_ = s.Record(ctx, "other", base, domain.StatusDown, nil)

	rows, err := s.Range(ctx, "m1", base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil || len(rows) != 2 {
		t.Fatalf("range bounds: %v %+v", err, rows)
	}

	if err := s.Prune(ctx, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	rows, _ = s.Range(ctx, "m1", base, base.Add(4*time.Hour))
	if len(rows) != 2 {
		t.Fatalf("want 2 buckets after prune, got %d", len(rows))
	}
}

func TestSQLite_Shares(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetShares(ctx, "m1", []string{"u1", "u2"}); err != nil {
		t.Fatalf("set shares: %v", err)
	}
	if ok, err := s.Allowed(ctx, "m1", "u1"); err != nil || !ok {
		t.Fatalf("u1 should be allowed: %v %v", ok, err)
	}
	if ok, _ := s.Allowed(ctx, "m1", "u9"); ok {
		t.Fatalf("u9 should not be allowed")
	}

	_ = s.SetShares(ctx, "m1", []string{"u3"})
	if ok, _ := s.Allowed(ctx, "m1", "u1"); ok {
		t.Fatalf("u1 should be revoked after replace")
	}
	if ok, _ := s.Allowed(ctx, "m1", "u3"); !ok {
		t.Fatalf("u3 should be allowed after replace")
	}
}
