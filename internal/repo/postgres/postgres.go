package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO monitors (id, owner_id, enabled, sort_order, def, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			owner_id   = EXCLUDED.owner_id,
			enabled    = EXCLUDED.enabled,
			sort_order = EXCLUDED.sort_order,
			def        = EXCLUDED.def,
			updated_at = EXCLUDED.updated_at`,
		string(m.ID), m.OwnerID, m.Enabled, m.Order, def, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert monitor: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	row := s.pool.QueryRow(ctx, `SELECT def FROM monitors WHERE id = $1`, string(id))
	var def []byte
	if err := row.Scan(&def); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get monitor: %w", err)
	}
	var m domain.Monitor
	if err := json.Unmarshal(def, &m); err != nil {
		return nil, fmt.Errorf("decode monitor %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Monitor, error) {
	rows, err := s.pool.Query(ctx, `SELECT def FROM monitors ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var out []domain.Monitor
	for rows.Next() {
		var def []byte
		if err := rows.Scan(&def); err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		var m domain.Monitor
		if err := json.Unmarshal(def, &m); err != nil {
			return nil, fmt.Errorf("decode monitor: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id domain.MonitorID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, string(id)); err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM shares WHERE monitor_id = $1`, string(id)); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	return nil
}

// ---- AggregateStore ----

func (s *Store) Record(ctx context.Context, id domain.MonitorID, bucket time.Time, status domain.Status, latencyMS *float64) error {
	ts := domain.HourBucket(bucket)

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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO stat_hourly (monitor_id, bucket, up, down, degraded, maintenance, avg_ms, samples)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (monitor_id, bucket) DO UPDATE SET
			up          = stat_hourly.up + EXCLUDED.up,
			down        = stat_hourly.down + EXCLUDED.down,
			degraded    = stat_hourly.degraded + EXCLUDED.degraded,
			maintenance = stat_hourly.maintenance + EXCLUDED.maintenance,
			avg_ms = CASE WHEN EXCLUDED.samples > 0
				THEN (stat_hourly.avg_ms * stat_hourly.samples + EXCLUDED.avg_ms) / (stat_hourly.samples + 1)
				ELSE stat_hourly.avg_ms END,
			samples = stat_hourly.samples + EXCLUDED.samples`,
		string(id), ts, up, down, degraded, maint, lat, samples)
	if err != nil {
		return fmt.Errorf("record aggregate: %w", err)
	}
	return nil
}

func (s *Store) Range(ctx context.Context, id domain.MonitorID, from, to time.Time) ([]domain.HourlyAggregate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bucket, up, down, degraded, maintenance, avg_ms, samples
		  FROM stat_hourly
		 WHERE monitor_id = $1 AND bucket >= $2 AND bucket <= $3
		 ORDER BY bucket`,
		string(id), domain.HourBucket(from), domain.HourBucket(to))
	if err != nil {
		return nil, fmt.Errorf("range aggregates: %w", err)
	}
	defer rows.Close()

	var out []domain.HourlyAggregate
	for rows.Next() {
		var agg domain.HourlyAggregate
		if err := rows.Scan(&agg.Bucket, &agg.ChecksUp, &agg.ChecksDown, &agg.ChecksDegraded,
			&agg.ChecksMaintenance, &agg.AvgResponseTimeMS, &agg.LatencySamples); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		agg.MonitorID = id
		agg.Bucket = agg.Bucket.UTC()
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *Store) Prune(ctx context.Context, olderThan time.Time) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM stat_hourly WHERE bucket < $1`, olderThan.UTC()); err != nil {
		return fmt.Errorf("prune aggregates: %w", err)
	}
	return nil
}

// ---- ShareStore ----

func (s *Store) Allowed(ctx context.Context, id domain.MonitorID, userID string) (bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shares WHERE monitor_id = $1 AND user_id = $2)`,
		string(id), userID)
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, fmt.Errorf("share lookup: %w", err)
	}
	return ok, nil
}

func (s *Store) SetShares(ctx context.Context, id domain.MonitorID, userIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin shares tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM shares WHERE monitor_id = $1`, string(id)); err != nil {
		return fmt.Errorf("clear shares: %w", err)
	}
	for _, u := range userIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO shares (monitor_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			string(id), u); err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return tx.Commit(ctx)
}
