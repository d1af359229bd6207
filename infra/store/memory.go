package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kplatou/harborwatt/core/store"
)

// MemoryStore keeps records in memory. It backs tests and throwaway runs
// where no database file is wanted.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[store.Table][]store.Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[store.Table][]store.Record)}
}

// Append stores the records.
func (s *MemoryStore) Append(_ context.Context, table store.Table, recs ...store.Record) error {
	if _, err := tableName(table); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[table] = append(s.data[table], recs...)
	s.mu.Unlock()
	return nil
}

// Query returns records matching q ordered by time.
func (s *MemoryStore) Query(_ context.Context, q store.Query) ([]store.Record, error) {
	if _, err := tableName(q.Table); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []store.Record
	for _, rec := range s.data[q.Table] {
		if !matches(rec, q.Source, q.Metric, q.Start, q.End) {
			continue
		}
		res = append(res, rec)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Time.Before(res[j].Time) })
	return res, nil
}

// DeleteRange removes records in [start, end) matching the filters.
func (s *MemoryStore) DeleteRange(_ context.Context, table store.Table, source, metric string, start, end time.Time) error {
	if _, err := tableName(table); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data[table][:0]
	for _, rec := range s.data[table] {
		if matches(rec, source, metric, start, end) {
			continue
		}
		kept = append(kept, rec)
	}
	s.data[table] = kept
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func matches(rec store.Record, source, metric string, start, end time.Time) bool {
	if source != "" && rec.Source != source {
		return false
	}
	if metric != "" && rec.Metric != metric {
		return false
	}
	if !start.IsZero() && rec.Time.Before(start) {
		return false
	}
	if !end.IsZero() && !rec.Time.Before(end) {
		return false
	}
	return true
}
