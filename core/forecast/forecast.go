package forecast

import (
	"time"
)

// EnergyForecast is the prediction for one timestep: renewable output,
// per-vessel energy needed for the next departure, and per-vessel
// availability. Forecasts are immutable once produced and regenerated
// daily.
type EnergyForecast struct {
	Time time.Time
	// PVKW is the predicted output of each renewable source.
	PVKW map[string]float64
	// TotalPVKW sums PVKW.
	TotalPVKW float64
	// RequiredKWh is the energy each vessel still needs for its next
	// departure of the day. Zero once no departure remains.
	RequiredKWh map[string]float64
	// Available is false while a vessel is predicted to be sailing.
	Available map[string]bool
}

// AvailableCount returns how many vessels are predicted present.
func (f *EnergyForecast) AvailableCount() int {
	n := 0
	for _, ok := range f.Available {
		if ok {
			n++
		}
	}
	return n
}
