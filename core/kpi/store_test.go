package kpi

import (
	"testing"
	"time"
)

func TestMemoryStoreAggregation(t *testing.T) {
	s := NewMemoryStore()
	d := Day(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC))
	if err := s.Add(Record{Vessel: "ferry", Date: d, ChargedKWh: 20}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(Record{Vessel: "ferry", Date: d.Add(5 * time.Hour), SailedKWh: 51.2}); err != nil {
		t.Fatalf("add2: %v", err)
	}
	recs, err := s.Query("ferry", d, d)
	if err != nil || len(recs) != 1 {
		t.Fatalf("query: %v len=%d", err, len(recs))
	}
	if recs[0].ChargedKWh != 20 || recs[0].SailedKWh != 51.2 {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}

func TestQueryRangeOrdersDays(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		if err := s.Add(Record{Vessel: "ferry", Date: base.AddDate(0, 0, i), ChargedKWh: float64(i)}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	recs, err := s.Query("ferry", base, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 days, got %d", len(recs))
	}
	if !recs[0].Date.Before(recs[1].Date) {
		t.Fatal("records not ordered by day")
	}
}

func TestRecordCalculations(t *testing.T) {
	r := Record{ChargedKWh: 100, SailedKWh: 80}
	if r.NetKWh() != 20 {
		t.Fatalf("net = %f", r.NetKWh())
	}
	if r.Turnover() != 0.8 {
		t.Fatalf("turnover = %f", r.Turnover())
	}
	empty := Record{}
	if empty.Turnover() != 0 {
		t.Fatalf("empty turnover = %f", empty.Turnover())
	}
}
