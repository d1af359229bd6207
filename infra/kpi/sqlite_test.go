package kpi

import (
	"path/filepath"
	"testing"
	"time"

	core "github.com/kplatou/harborwatt/core/kpi"
)

func TestSQLiteStoreAccumulates(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	day := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	if err := s.Add(core.Record{Vessel: "ferry", Date: day.Add(8 * time.Hour), ChargedKWh: 20}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(core.Record{Vessel: "ferry", Date: day.Add(10 * time.Hour), SailedKWh: 51.2}); err != nil {
		t.Fatalf("add2: %v", err)
	}
	if err := s.Add(core.Record{Vessel: "tug", Date: day, ChargedKWh: 5}); err != nil {
		t.Fatalf("add3: %v", err)
	}

	recs, err := s.Query("ferry", day, day)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one day, got %d", len(recs))
	}
	if recs[0].ChargedKWh != 20 || recs[0].SailedKWh != 51.2 {
		t.Fatalf("unexpected record %+v", recs[0])
	}
	if recs[0].Date != day {
		t.Fatalf("date not aligned to day start: %s", recs[0].Date)
	}
}

func TestSQLiteStoreRange(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.Add(core.Record{Vessel: "ferry", Date: base.AddDate(0, 0, i), ChargedKWh: float64(i)}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	recs, err := s.Query("ferry", base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 days, got %d", len(recs))
	}
	if recs[0].ChargedKWh != 1 || recs[2].ChargedKWh != 3 {
		t.Fatalf("range mismatch: %+v", recs)
	}
}
