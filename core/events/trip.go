package events

import "time"

// TripAction names a trip lifecycle transition.
type TripAction string

const (
	TripStarted   TripAction = "started"
	TripDelayed   TripAction = "delayed"
	TripCancelled TripAction = "cancelled"
	TripCompleted TripAction = "completed"
)

// TripEvent is published whenever a vessel's trip changes state.
type TripEvent struct {
	Vessel string
	Route  string
	Action TripAction
	At     time.Time
}
