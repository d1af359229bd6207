package model

import (
	"math"
	"time"
)

// Waypoint is one sample of a recorded route.
type Waypoint struct {
	Time       time.Time
	SpeedKn    float64
	HeadingDeg float64
	Lat        float64
	Lon        float64
}

// Trip is an ordered, immutable sequence of waypoints describing one route.
// Trips are loaded once and only read during simulation.
type Trip struct {
	Name      string
	Waypoints []Waypoint
}

// Duration returns the time span between the first and last waypoint.
func (t *Trip) Duration() time.Duration {
	if len(t.Waypoints) < 2 {
		return 0
	}
	return t.Waypoints[len(t.Waypoints)-1].Time.Sub(t.Waypoints[0].Time)
}

// SpeedAt returns the speed sailed at the given offset into the trip. Speed is
// piecewise constant per segment, held from the segment's first waypoint.
func (t *Trip) SpeedAt(elapsed time.Duration) float64 {
	if len(t.Waypoints) == 0 {
		return 0
	}
	start := t.Waypoints[0].Time
	at := start.Add(elapsed)
	speed := t.Waypoints[0].SpeedKn
	for _, wp := range t.Waypoints[1:] {
		if wp.Time.After(at) {
			break
		}
		speed = wp.SpeedKn
	}
	return speed
}

// EnergyKWh estimates the propulsion energy required to sail the trip for a
// vessel with the given k-factor, integrating k*v^3 over the segments.
func (t *Trip) EnergyKWh(k float64) float64 {
	if len(t.Waypoints) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(t.Waypoints)-1; i++ {
		dt := t.Waypoints[i+1].Time.Sub(t.Waypoints[i].Time).Hours()
		if dt <= 0 {
			continue
		}
		total += k * math.Pow(t.Waypoints[i].SpeedKn, 3) * dt
	}
	return total
}
