package events

import "time"

// ShortfallEvent is published when a solve cannot guarantee a vessel's
// pre-departure energy. The override policy reacts to the same condition.
type ShortfallEvent struct {
	Vessel      string
	MissingKWh  float64
	CapacityPct float64
	At          time.Time
}
