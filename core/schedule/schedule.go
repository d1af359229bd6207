package schedule

import (
	"time"

	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/core/store"
)

// Summary holds the headline metrics of one optimization run.
type Summary struct {
	PeakKW    float64 // highest total charger draw over the horizon
	EnergyKWh float64 // total energy delivered to vessels
	CostEUR   float64 // grid energy cost under the port tariff
	UnmetKWh  float64 // total deadline shortfall across vessels
}

// Schedule is a per-device time series of planned power setpoints covering
// every forecast timestep of one optimization run. The engine reads it each
// timestep; a later re-optimization may supersede the remainder of the day
// with a fresh Schedule.
type Schedule struct {
	Start time.Time
	Step  time.Duration
	Steps int

	// ChargerKW maps charger name to planned power per timestep, always
	// non-negative and within the charger rating.
	ChargerKW map[string][]float64
	// BatteryKW maps battery name to planned net power per timestep,
	// signed: positive discharges to the bus, negative charges.
	BatteryKW map[string][]float64
	// VesselKWh maps vessel name to the energy attributed to it per
	// timestep. Empty for fallback schedules.
	VesselKWh map[string][]float64
	// GridKW is the planned grid import per timestep.
	GridKW []float64

	Status   solver.Status
	Fallback bool
	// Shortfall maps vessel name to the energy the solve could not
	// guarantee before its deadline, in kWh. Only vessels with a
	// positive shortfall appear.
	Shortfall map[string]float64
	Summary   Summary
}

// Index returns the timestep index covering t, or false when t falls
// outside the schedule horizon.
func (s *Schedule) Index(t time.Time) (int, bool) {
	if s.Steps == 0 || t.Before(s.Start) {
		return 0, false
	}
	i := int(t.Sub(s.Start) / s.Step)
	if i >= s.Steps {
		return 0, false
	}
	return i, true
}

// ChargerPowerAt returns the planned power for the named charger at t,
// zero outside the horizon or for unknown chargers.
func (s *Schedule) ChargerPowerAt(name string, t time.Time) float64 {
	i, ok := s.Index(t)
	if !ok {
		return 0
	}
	series, ok := s.ChargerKW[name]
	if !ok {
		return 0
	}
	return series[i]
}

// BatteryPowerAt returns the planned signed net power for the named
// battery at t, zero outside the horizon or for unknown batteries.
func (s *Schedule) BatteryPowerAt(name string, t time.Time) float64 {
	i, ok := s.Index(t)
	if !ok {
		return 0
	}
	series, ok := s.BatteryKW[name]
	if !ok {
		return 0
	}
	return series[i]
}

// SetChargerPower overwrites the planned power for one charger from
// timestep index from onward. The shortfall override uses this to force a
// charger to rated power for the rest of the day without touching the
// rest of the schedule.
func (s *Schedule) SetChargerPower(name string, from int, kw float64) {
	series, ok := s.ChargerKW[name]
	if !ok {
		return
	}
	if from < 0 {
		from = 0
	}
	for i := from; i < len(series); i++ {
		series[i] = kw
	}
}

// Records encodes the schedule for the scheduling table: one row per
// (timestamp, device, power setpoint). Charger rows are non-negative,
// battery rows keep the signed convention.
func (s *Schedule) Records() []store.Record {
	recs := make([]store.Record, 0, s.Steps*(len(s.ChargerKW)+len(s.BatteryKW)))
	for i := 0; i < s.Steps; i++ {
		ts := s.Start.Add(time.Duration(i) * s.Step)
		for name, series := range s.ChargerKW {
			recs = append(recs, store.Record{
				Time:   ts,
				Source: name,
				Metric: store.MetricPowerSetpoint,
				Value:  store.FormatValue(series[i]),
			})
		}
		for name, series := range s.BatteryKW {
			recs = append(recs, store.Record{
				Time:   ts,
				Source: name,
				Metric: store.MetricPowerSetpoint,
				Value:  store.FormatValue(series[i]),
			})
		}
	}
	return recs
}

// TotalChargerKW returns the summed planned charger power at timestep i.
func (s *Schedule) TotalChargerKW(i int) float64 {
	var total float64
	for _, series := range s.ChargerKW {
		total += series[i]
	}
	return total
}
