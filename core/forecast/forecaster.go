package forecast

import (
	"context"
	"strconv"
	"time"

	"github.com/kplatou/harborwatt/core/logger"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/solar"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/core/weather"
)

// Forecaster turns weather and trip assignments into per-timestep energy
// predictions for one day.
type Forecaster struct {
	port    *model.Port
	weather weather.Provider
	yield   solar.Model
	store   store.Store
	log     logger.Logger
	step    time.Duration
}

// New creates a Forecaster. The store is optional; pass nil to skip
// persistence.
func New(port *model.Port, w weather.Provider, yield solar.Model, st store.Store, step time.Duration, log logger.Logger) *Forecaster {
	return &Forecaster{
		port:    port,
		weather: w,
		yield:   yield,
		store:   st,
		log:     log,
		step:    step,
	}
}

// DayAhead produces one EnergyForecast per timestep covering the 24 hours
// starting at date's local midnight.
func (f *Forecaster) DayAhead(ctx context.Context, date time.Time, asg trips.Assignments) ([]EnergyForecast, error) {
	midnight := startOfDay(date)
	return f.generate(ctx, midnight, midnight.Add(24*time.Hour), asg)
}

// From produces forecasts restricted to timesteps at or after now, up to
// the end of now's day. Re-optimization uses this so the remainder of the
// day reflects decision-time state instead of the midnight forecast.
func (f *Forecaster) From(ctx context.Context, now time.Time, asg trips.Assignments) ([]EnergyForecast, error) {
	end := startOfDay(now).Add(24 * time.Hour)
	return f.generate(ctx, now, end, asg)
}

// generate builds forecasts for [from, to). A weather fetch failure
// degrades to default samples (zero irradiance, 20°C) rather than failing
// the run; only context cancellation aborts.
func (f *Forecaster) generate(ctx context.Context, from, to time.Time, asg trips.Assignments) ([]EnergyForecast, error) {
	samples, err := f.weather.Fetch(ctx, f.port.Lat, f.port.Lon, from, to)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Warnf("weather fetch failed, forecasting without irradiance: %v", err)
		samples = nil
	}

	date := startOfDay(from)
	var out []EnergyForecast
	for ts := from; ts.Before(to); ts = ts.Add(f.step) {
		ef := EnergyForecast{
			Time:        ts,
			PVKW:        make(map[string]float64, len(f.port.PVArrays)),
			RequiredKWh: make(map[string]float64, len(f.port.Boats)),
			Available:   make(map[string]bool, len(f.port.Boats)),
		}
		sample := weather.At(samples, ts)
		for _, pv := range f.port.PVArrays {
			kw := f.yield.ACPowerKW(sample, *pv, ts, f.port.Lat, f.port.Lon)
			ef.PVKW[pv.Name] = kw
			ef.TotalPVKW += kw
		}
		for _, b := range f.port.Boats {
			dayTrips := asg[b.Name]
			ef.RequiredKWh[b.Name] = requiredEnergyAt(b, ts, date, dayTrips)
			ef.Available[b.Name] = availableAt(ts, date, dayTrips)
		}
		out = append(out, ef)
	}
	f.persist(ctx, out)
	return out, nil
}

// requiredEnergyAt returns the estimated energy of the vessel's next
// departure not yet reached: trip 1's before the first window, trip 2's
// between windows, zero after the last departure.
func requiredEnergyAt(b *model.Boat, t, date time.Time, dayTrips []*model.Trip) float64 {
	k := b.KFactor()
	for slot, trip := range dayTrips {
		if trip == nil {
			continue
		}
		if t.Before(trips.SlotStart(date, slot)) {
			return trip.EnergyKWh(k)
		}
	}
	return 0
}

// availableAt reports whether the vessel is predicted ashore at t. It uses
// the fixed departure windows and each trip's nominal duration, regardless
// of what the vessel actually does at runtime.
func availableAt(t, date time.Time, dayTrips []*model.Trip) bool {
	for slot, trip := range dayTrips {
		if trip == nil {
			continue
		}
		dep := trips.SlotStart(date, slot)
		if !t.Before(dep) && t.Before(dep.Add(trip.Duration())) {
			return false
		}
	}
	return true
}

// persist mirrors the forecasts into the store's forecast table. Failures
// are logged and swallowed; in-memory results are already complete.
func (f *Forecaster) persist(ctx context.Context, fcs []EnergyForecast) {
	if f.store == nil || len(fcs) == 0 {
		return
	}
	var recs []store.Record
	for _, ef := range fcs {
		for name, kw := range ef.PVKW {
			recs = append(recs, store.Record{
				Time: ef.Time, Source: name,
				Metric: store.MetricPVPowerKW, Value: store.FormatValue(kw),
			})
		}
		recs = append(recs, store.Record{
			Time: ef.Time, Source: store.SourcePort,
			Metric: store.MetricPVTotalKW, Value: store.FormatValue(ef.TotalPVKW),
		})
		for name, kwh := range ef.RequiredKWh {
			recs = append(recs, store.Record{
				Time: ef.Time, Source: name,
				Metric: store.MetricRequiredKWh, Value: store.FormatValue(kwh),
			})
		}
		for name, ok := range ef.Available {
			recs = append(recs, store.Record{
				Time: ef.Time, Source: name,
				Metric: store.MetricAvailable, Value: strconv.FormatBool(ok),
			})
		}
	}
	if err := f.store.Append(ctx, store.TableForecast, recs...); err != nil {
		f.log.Warnf("forecast persistence failed: %v", err)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
