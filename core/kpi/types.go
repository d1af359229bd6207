package kpi

import "time"

// Record aggregates one vessel's energy flows for one day.
type Record struct {
	Vessel     string
	Date       time.Time
	ChargedKWh float64
	SailedKWh  float64
}

// NetKWh returns the day's battery balance, positive when the vessel
// banked more energy than it spent under way.
func (r Record) NetKWh() float64 {
	return r.ChargedKWh - r.SailedKWh
}

// Turnover returns the ratio of sailed to charged energy. A vessel that
// sails everything it charges hovers around 1.
func (r Record) Turnover() float64 {
	if r.ChargedKWh == 0 {
		if r.SailedKWh == 0 {
			return 0
		}
		return r.SailedKWh
	}
	return r.SailedKWh / r.ChargedKWh
}
