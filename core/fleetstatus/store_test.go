package fleetstatus

import (
	"testing"
	"time"
)

func TestMemoryStore_Filter(t *testing.T) {
	s := NewMemoryStore()
	s.Set(Status{Vessel: "ferry", State: StateDocked})
	s.Set(Status{Vessel: "tug", State: StateSailing})
	out := s.List(Filter{State: StateSailing})
	if len(out) != 1 || out[0].Vessel != "tug" {
		t.Fatalf("filter failed: %#v", out)
	}
}

func TestMemoryStore_ListSorted(t *testing.T) {
	s := NewMemoryStore()
	s.Set(Status{Vessel: "tug"})
	s.Set(Status{Vessel: "barge"})
	s.Set(Status{Vessel: "ferry"})
	out := s.List(Filter{})
	if len(out) != 3 || out[0].Vessel != "barge" || out[2].Vessel != "tug" {
		t.Fatalf("order failed: %#v", out)
	}
}

func TestMemoryStore_SetTripDerivesState(t *testing.T) {
	s := NewMemoryStore()
	at := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	s.SetTrip("ferry", LastTrip{Route: "harbor-loop", Action: "started", At: at})
	out := s.List(Filter{})
	if len(out) != 1 || out[0].State != StateSailing {
		t.Fatalf("started should map to sailing: %#v", out)
	}
	s.SetTrip("ferry", LastTrip{Route: "harbor-loop", Action: "completed", At: at.Add(time.Hour)})
	out = s.List(Filter{})
	if out[0].State != StateDocked || out[0].UpdatedAt != at.Add(time.Hour) {
		t.Fatalf("completed should map to docked: %#v", out)
	}
}

func TestMemoryStore_SetChargeCreates(t *testing.T) {
	s := NewMemoryStore()
	at := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	s.SetCharge("ferry", 0.8, 320, at)
	out := s.List(Filter{})
	if len(out) != 1 || out[0].SoC != 0.8 || out[0].StoredKWh != 320 || out[0].State != StateDocked {
		t.Fatalf("auto create failed: %#v", out)
	}
}
