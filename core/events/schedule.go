package events

import "time"

// ScheduleEvent is published when an optimization run produces a schedule,
// at midnight or on a mid-day rebuild.
type ScheduleEvent struct {
	Start       time.Time
	Status      string
	Fallback    bool
	Reoptimized bool
	UnmetKWh    float64
}
