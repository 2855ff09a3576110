package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/repo"
)

type bucketKey struct {
	id     domain.MonitorID
	bucket time.Time
}

type Store struct {
	mu       sync.RWMutex
	monitors map[domain.MonitorID]domain.Monitor
	buckets  map[bucketKey]domain.HourlyAggregate
	shares   map[domain.MonitorID]map[string]struct{}
}

func New() *Store {
	return &Store{
		monitors: make(map[domain.MonitorID]domain.Monitor),
		buckets:  make(map[bucketKey]domain.HourlyAggregate),
		shares:   make(map[domain.MonitorID]map[string]struct{}),
	}
}

// ---- MonitorStore ----

func (s *Store) Put(ctx context.Context, m domain.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = time.Now().UTC()
	s.monitors[m.ID] = m
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.monitors[id]
	if !ok {
		return nil, nil
	}
	cp := m
	return &cp, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Monitor, 0, len(s.monitors))
	for _, m := range s.monitors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id domain.MonitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.monitors, id)
	delete(s.shares, id)
	return nil
}

// ---- AggregateStore ----

func (s *Store) Record(ctx context.Context, id domain.MonitorID, bucket time.Time, status domain.Status, latencyMS *float64) error {
	bucket = domain.HourBucket(bucket)
	key := bucketKey{id: id, bucket: bucket}

	s.mu.Lock()
	defer s.mu.Unlock()

	agg, ok := s.buckets[key]
	if !ok {
		agg = domain.HourlyAggregate{MonitorID: id, Bucket: bucket}
	}
	switch status {
	case domain.StatusUp:
		agg.ChecksUp++
	case domain.StatusDegraded:
		agg.ChecksDegraded++
	case domain.StatusDown:
		agg.ChecksDown++
	case domain.StatusMaintenance:
		agg.ChecksMaintenance++
	}
	if latencyMS != nil && status != domain.StatusMaintenance {
		agg.AvgResponseTimeMS = (agg.AvgResponseTimeMS*float64(agg.LatencySamples) + *latencyMS) / float64(agg.LatencySamples+1)
		agg.LatencySamples++
	}
	s.buckets[key] = agg
	return nil
}

func (s *Store) Range(ctx context.Context, id domain.MonitorID, from, to time.Time) ([]domain.HourlyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.HourlyAggregate
	for key, agg := range s.buckets {
		if key.id != id {
			continue
		}
		if key.bucket.Before(from) || key.bucket.After(to) {
			continue
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}

func (s *Store) Prune(ctx context.Context, olderThan time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.buckets {
		if key.bucket.Before(olderThan) {
			delete(s.buckets, key)
		}
	}
	return nil
}

// ---- ShareStore ----

func (s *Store) Allowed(ctx context.Context, id domain.MonitorID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.shares[id]
	if !ok {
		return false, nil
	}
	_, ok = set[userID]
	return ok, nil
}

func (s *Store) SetShares(ctx context.Context, id domain.MonitorID, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{}, len(userIDs))
	for _, u := range userIDs {
		set[u] = struct{}{}
	}
	s.shares[id] = set
	return nil
}

var _ repo.Store = (*Store)(nil)
