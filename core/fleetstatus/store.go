package fleetstatus

import (
	"sort"
	"sync"
	"time"
)

// Vessel states as exposed by the status API.
const (
	StateDocked  = "docked"
	StateSailing = "sailing"
	StateDelayed = "delayed"
)

// LastTrip summarises the most recent trip transition of a vessel.
type LastTrip struct {
	Route  string    `json:"route"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Status captures the current known state of one vessel.
type Status struct {
	Vessel      string    `json:"vessel"`
	State       string    `json:"state"`
	SoC         float64   `json:"soc"`
	StoredKWh   float64   `json:"stored_kwh"`
	CapacityKWh float64   `json:"capacity_kwh"`
	LastTrip    LastTrip  `json:"last_trip,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter restricts List results.
type Filter struct {
	State string
}

// Store holds the live status of every vessel in the port.
type Store interface {
	Set(Status)
	SetTrip(vessel string, trip LastTrip)
	SetCharge(vessel string, soc, storedKWh float64, at time.Time)
	List(Filter) []Status
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	s.data[st.Vessel] = st
	s.mu.Unlock()
}

// SetTrip records a trip transition and derives the vessel state from it.
func (s *MemoryStore) SetTrip(vessel string, trip LastTrip) {
	s.mu.Lock()
	st := s.data[vessel]
	if st.Vessel == "" {
		st.Vessel = vessel
	}
	st.LastTrip = trip
	switch trip.Action {
	case "started":
		st.State = StateSailing
	case "delayed":
		st.State = StateDelayed
	default:
		st.State = StateDocked
	}
	st.UpdatedAt = trip.At
	s.data[vessel] = st
	s.mu.Unlock()
}

// SetCharge updates the battery figures without touching the trip state.
func (s *MemoryStore) SetCharge(vessel string, soc, storedKWh float64, at time.Time) {
	s.mu.Lock()
	st := s.data[vessel]
	if st.Vessel == "" {
		st.Vessel = vessel
		st.State = StateDocked
	}
	st.SoC = soc
	st.StoredKWh = storedKWh
	st.UpdatedAt = at
	s.data[vessel] = st
	s.mu.Unlock()
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.State != "" && st.State != f.State {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Vessel < res[j].Vessel })
	return res
}
