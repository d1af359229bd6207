// Package auditlog defines the persistent trail of simulation events.
// Every trip transition, schedule build and energy shortfall is recorded
// so a run can be replayed or inspected after the fact.
package auditlog

import (
	"context"
	"time"
)

// Event kinds stored in the trail.
const (
	KindTrip      = "trip"
	KindSchedule  = "schedule"
	KindShortfall = "shortfall"
)

// Record captures one simulation event.
type Record struct {
	Time        time.Time `json:"time"`
	Kind        string    `json:"kind"`
	Vessel      string    `json:"vessel,omitempty"`
	Route       string    `json:"route,omitempty"`
	Action      string    `json:"action,omitempty"`
	Status      string    `json:"status,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
	Reoptimized bool      `json:"reoptimized,omitempty"`
	MissingKWh  float64   `json:"missing_kwh,omitempty"`
	UnmetKWh    float64   `json:"unmet_kwh,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start  time.Time
	End    time.Time
	Vessel string
	Kind   string
}

// Matches reports whether the record passes the query filters.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	if q.Vessel != "" && r.Vessel != q.Vessel {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
