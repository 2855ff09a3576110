// Package sqlite is the embedded store adapter, backed by the CGO-free
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS monitors (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	enabled    INTEGER NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0,
	def        TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stat_hourly (
	monitor_id  TEXT NOT NULL,
	bucket      INTEGER NOT NULL,
	up          INTEGER NOT NULL DEFAULT 0,
	down        INTEGER NOT NULL DEFAULT 0,
	degraded    INTEGER NOT NULL DEFAULT 0,
	maintenance INTEGER NOT NULL DEFAULT 0,
	avg_ms      REAL NOT NULL DEFAULT 0,
	samples     INTEGER NOT NULL DEFAULT 0,
	UNIQUE(monitor_id, bucket)
);
CREATE INDEX IF NOT EXISTS idx_stat_hourly_monitor ON stat_hourly(monitor_id);
CREATE INDEX IF NOT EXISTS idx_stat_hourly_bucket  ON stat_hourly(bucket);

CREATE TABLE IF NOT EXISTS shares (
	monitor_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	PRIMARY KEY (monitor_id, user_id)
);
`

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer connection; sqlite serializes writes anyway and this
	// keeps upserts from fighting over the file lock.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- MonitorStore ----

func (s *Store) Put(ctx context.Context, m domain.Monitor) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = time.Now().UTC()
	def, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode monitor: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO monitors (id, owner_id, enabled, sort_order, def, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id   = excluded.owner_id,
			enabled    = excluded.enabled,
			sort_order = excluded.sort_order,
			def        = excluded.def,
			updated_at = excluded.updated_at`,
		string(m.ID), m.OwnerID, boolInt(m.Enabled), m.Order, string(def),
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert monitor: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT def FROM monitors WHERE id = ?`, string(id))
	var def string
	if err := row.Scan(&def); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	var m domain.Monitor
	if err := json.Unmarshal([]byte(def), &m); err != nil {
		return nil, fmt.Errorf("decode monitor %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Monitor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT def FROM monitors ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var out []domain.Monitor
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		var m domain.Monitor
		if err := json.Unmarshal([]byte(def), &m); err != nil {
			return nil, fmt.Errorf("decode monitor: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id domain.MonitorID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM monitors WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM shares WHERE monitor_id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

// ---- AggregateStore ----

func (s *Store) Record(ctx context.Context, id domain.MonitorID, bucket time.Time, status domain.Status, latencyMS *float64) error {
	ts := domain.HourBucket(bucket).Unix()

	up, down, degraded, maint := 0, 0, 0, 0
	switch status {
	case domain.StatusUp:
		up = 1
	case domain.StatusDown:
		down = 1
	case domain.StatusDegraded:
		degraded = 1
	case domain.StatusMaintenance:
		maint = 1
	}

	lat, samples := 0.0, 0
	if latencyMS != nil && status != domain.StatusMaintenance {
		lat, samples = *latencyMS, 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stat_hourly (monitor_id, bucket, up, down, degraded, maintenance, avg_ms, samples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(monitor_id, bucket) DO UPDATE SET
			up          = stat_hourly.up + excluded.up,
			down        = stat_hourly.down + excluded.down,
			degraded    = stat_hourly.degraded + excluded.degraded,
			maintenance = stat_hourly.maintenance + excluded.maintenance,
			avg_ms = CASE WHEN excluded.samples > 0
				THEN (stat_hourly.avg_ms * stat_hourly.samples + excluded.avg_ms) / (stat_hourly.samples + 1)
				ELSE stat_hourly.avg_ms END,
			samples = stat_hourly.samples + excluded.samples`,
		string(id), ts, up, down, degraded, maint, lat, samples)
	if err != nil {
		return fmt.Errorf("record aggregate: %w", err)
	}
	return nil
}

func (s *Store) Range(ctx context.Context, id domain.MonitorID, from, to time.Time) ([]domain.HourlyAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket, up, down, degraded, maintenance, avg_ms, samples
		  FROM stat_hourly
		 WHERE monitor_id = ? AND bucket >= ? AND bucket <= ?
		 ORDER BY bucket`,
		string(id), domain.HourBucket(from).Unix(), domain.HourBucket(to).Unix())
	if err != nil {
		return nil, fmt.Errorf("range aggregates: %w", err)
	}
	defer rows.Close()

	var out []domain.HourlyAggregate
	for rows.Next() {
		var (
			ts  int64
			agg domain.HourlyAggregate
		)
		if err := rows.Scan(&ts, &agg.ChecksUp, &agg.ChecksDown, &agg.ChecksDegraded,
			&agg.ChecksMaintenance, &agg.AvgResponseTimeMS, &agg.LatencySamples); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		agg.MonitorID = id
		agg.Bucket = time.Unix(ts, 0).UTC()
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *Store) Prune(ctx context.Context, olderThan time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stat_hourly WHERE bucket < ?`, olderThan.UTC().Unix())
	if err != nil {
		return fmt.Errorf("prune aggregates: %w", err)
	}
	return nil
}

// ---- ShareStore ----

func (s *Store) Allowed(ctx context.Context, id domain.MonitorID, userID string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM shares WHERE monitor_id = ? AND user_id = ?`, string(id), userID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("share lookup: %w", err)
	}
	return true, nil
}

func (s *Store) SetShares(ctx context.Context, id domain.MonitorID, userIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin shares tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shares WHERE monitor_id = ?`, string(id)); err != nil {
		return fmt.Errorf("clear shares: %w", err)
	}
	for _, u := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO shares (monitor_id, user_id) VALUES (?, ?)`, string(id), u); err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
