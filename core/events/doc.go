// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - TripEvent: vessel trip lifecycle transition
//   - ScheduleEvent: a new schedule was produced
//   - ShortfallEvent: an optimization run left a vessel short of energy
package events
