package kpi

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in memory for tests and one-shot rollups.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or accumulates the record under its vessel and day.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.Vessel] == nil {
		s.data[r.Vessel] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.Vessel][d]
	if rec == nil {
		rec = &Record{Vessel: r.Vessel, Date: d}
		s.data[r.Vessel][d] = rec
	}
	rec.ChargedKWh += r.ChargedKWh
	rec.SailedKWh += r.SailedKWh
	return nil
}

// Query returns the vessel's records between start and end inclusive,
// ordered by day.
func (s *MemoryStore) Query(vessel string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[vessel] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
