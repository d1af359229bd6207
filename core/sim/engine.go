package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kplatou/harborwatt/core/events"
	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/logger"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/solar"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/core/weather"
	"github.com/kplatou/harborwatt/internal/eventbus"
)

// Mode selects how the engine executes a run.
type Mode string

const (
	// ModeBatch runs the window flat out with no mid-day rebuilds.
	ModeBatch Mode = "batch"
	// ModeIncremental re-optimizes on trip transitions and honors the
	// pacing delay between timesteps.
	ModeIncremental Mode = "incremental"
)

// ParseMode maps a configuration string to a Mode. Empty selects batch.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBatch, ModeIncremental:
		return Mode(s), nil
	case "":
		return ModeBatch, nil
	default:
		return "", fmt.Errorf("unknown simulation mode %q", s)
	}
}

// socDisconnect is the state of charge at which a vessel counts as full
// and is released from its charger.
const socDisconnect = 0.99

// tripRun tracks one vessel's progress through a pending or active trip.
type tripRun struct {
	trip    *model.Trip
	slot    int
	delayed bool
	started bool
	elapsed time.Duration
}

type vesselState struct {
	run      *tripRun
	nextSlot int
}

// Options carries the collaborators and settings for an Engine.
type Options struct {
	Port     *model.Port
	Trips    *trips.Manager
	Forecast *forecast.Forecaster
	Builder  schedule.Builder // nil disables optimization
	Weather  weather.Provider
	Yield    solar.Model
	Store    store.Store // nil disables persistence
	Bus      *eventbus.Bus[any]
	Log      logger.Logger

	Step   time.Duration
	Policy Policy
	Mode   Mode
	// Pace is the real-time delay between timesteps in incremental
	// mode. Zero runs flat out.
	Pace time.Duration

	// CutoffHour is the local hour after which a delayed trip is
	// cancelled instead of retried.
	CutoffHour int
	// CheapPriceEUR is the tariff price below which the stationary
	// battery may charge from the grid.
	CheapPriceEUR float64
	// ReoptFromHour and ReoptToHour bound the daytime window in which
	// trip transitions trigger a re-optimization.
	ReoptFromHour int
	ReoptToHour   int
}

// Engine owns the discrete-time loop. It is the sole writer of the port
// state within a timestep; one engine instance owns one port for the
// duration of a run.
type Engine struct {
	port    *model.Port
	trips   *trips.Manager
	fc      *forecast.Forecaster
	builder schedule.Builder
	weather weather.Provider
	yield   solar.Model
	store   store.Store
	bus     *eventbus.Bus[any]
	log     logger.Logger

	step   time.Duration
	policy assignPolicy
	mode   Mode
	pace   time.Duration

	cutoffHour    int
	cheapPriceEUR float64
	reoptFrom     int
	reoptTo       int

	// per-day state, refreshed by beginDay
	day     time.Time
	asg     trips.Assignments
	fcs     []forecast.EnergyForecast
	sched   *schedule.Schedule
	samples []weather.Sample

	states    map[string]*vesselState
	chargerOf map[string]*model.Charger // vessel name -> connected charger
	home      map[string]*model.Charger // vessel name -> override charger
	arrivals  []string                  // FCFS order of vessels awaiting charge
	reopt     bool
}

// New validates the options and builds an engine. The port must already
// have passed Validate; physical parameter errors are fatal here, never
// during a run.
func New(opts Options) (*Engine, error) {
	if opts.Port == nil || opts.Trips == nil || opts.Forecast == nil || opts.Weather == nil || opts.Yield == nil || opts.Log == nil {
		return nil, fmt.Errorf("sim: nil collaborator passed to New")
	}
	if err := opts.Port.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid port: %w", err)
	}
	if opts.Step <= 0 {
		opts.Step = time.Hour
	}
	if opts.Store == nil {
		opts.Store = store.NopStore{}
	}
	if opts.Mode == "" {
		opts.Mode = ModeBatch
	}
	if opts.CutoffHour <= 0 {
		opts.CutoffHour = 18
	}
	if opts.CheapPriceEUR <= 0 {
		opts.CheapPriceEUR = 0.10
	}
	if opts.ReoptFromHour <= 0 {
		opts.ReoptFromHour = 6
	}
	if opts.ReoptToHour <= 0 {
		opts.ReoptToHour = 22
	}
	policy, err := newAssignPolicy(opts.Policy, opts.Builder)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		port:          opts.Port,
		trips:         opts.Trips,
		fc:            opts.Forecast,
		builder:       opts.Builder,
		weather:       opts.Weather,
		yield:         opts.Yield,
		store:         opts.Store,
		bus:           opts.Bus,
		log:           opts.Log,
		step:          opts.Step,
		policy:        policy,
		mode:          opts.Mode,
		pace:          opts.Pace,
		cutoffHour:    opts.CutoffHour,
		cheapPriceEUR: opts.CheapPriceEUR,
		reoptFrom:     opts.ReoptFromHour,
		reoptTo:       opts.ReoptToHour,
		states:        make(map[string]*vesselState, len(opts.Port.Boats)),
		chargerOf:     make(map[string]*model.Charger),
		home:          make(map[string]*model.Charger, len(opts.Port.Boats)),
	}
	for i, b := range opts.Port.Boats {
		e.states[b.Name] = &vesselState{}
		e.arrivals = append(e.arrivals, b.Name)
		if n := len(opts.Port.Chargers); n > 0 {
			e.home[b.Name] = opts.Port.Chargers[i%n]
		}
	}
	return e, nil
}

// Run steps the simulation from from (inclusive) to to (exclusive).
// Cancelling the context ends the run cleanly between timesteps; data
// written so far stays in the store.
func (e *Engine) Run(ctx context.Context, from, to time.Time) error {
	if !from.Before(to) {
		return fmt.Errorf("sim: empty window [%s, %s)", from, to)
	}
	e.log.Infof("simulating %s to %s at %s steps", from.Format(time.RFC3339), to.Format(time.RFC3339), e.step)
	for t := from; t.Before(to); t = t.Add(e.step) {
		select {
		case <-ctx.Done():
			e.log.Warnf("run interrupted at %s", t.Format(time.RFC3339))
			return ctx.Err()
		default:
		}
		if err := e.Step(ctx, t); err != nil {
			return err
		}
		if e.mode == ModeIncremental && e.pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.pace):
			}
		}
	}
	e.log.Infof("simulation finished")
	return nil
}

// Step executes the ordered per-timestep actions. The order is load
// bearing: every action consumes state the previous one updated.
func (e *Engine) Step(ctx context.Context, t time.Time) error {
	if e.day.IsZero() || t.Equal(startOfDay(t)) {
		if err := e.beginDay(ctx, t); err != nil {
			return err
		}
	}
	e.advanceTrips(t)
	e.updateRenewables(t)
	e.policy.assign(e, t)
	e.dispatchBatteries(t)
	e.applyCharging(t)
	e.emitMeasurements(ctx, t)
	stepsTotal.Inc()
	if e.reopt {
		e.reopt = false
		e.maybeReoptimize(ctx, t)
	}
	return nil
}

// beginDay runs the midnight block: weather for the coming window, trip
// assignments, a fresh forecast and, when optimization is enabled, a new
// schedule. Only context cancellation aborts; every data failure degrades.
func (e *Engine) beginDay(ctx context.Context, t time.Time) error {
	day := startOfDay(t)
	e.day = day
	e.log.Infof("starting day %s", day.Format("2006-01-02"))

	samples, err := e.weather.Fetch(ctx, e.port.Lat, e.port.Lon, day, day.Add(24*time.Hour))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.log.Warnf("weather fetch failed, running on defaults: %v", err)
		samples = nil
	}
	e.samples = samples

	e.asg = e.trips.AssignAll(e.port.Boats, day)
	for _, b := range e.port.Boats {
		st := e.states[b.Name]
		st.nextSlot = 0
		// a vessel still sailing keeps its run across midnight;
		// pending or delayed attempts belong to the finished day
		if st.run != nil && !st.run.started {
			st.run = nil
		}
	}

	fcs, err := e.fc.DayAhead(ctx, day, e.asg)
	if err != nil {
		return err
	}
	e.fcs = fcs
	e.sched = nil
	if e.builder == nil {
		return nil
	}
	solveStart := time.Now()
	s, err := e.builder.BuildAndSolve(ctx, day, fcs, e.asg)
	solveDuration.Observe(time.Since(solveStart).Seconds())
	if err != nil {
		e.log.Errorf("schedule build failed: %v", err)
		return nil
	}
	e.adoptSchedule(ctx, s, false)
	return nil
}

// adoptSchedule installs a schedule, applies shortfall overrides, mirrors
// the setpoints into the scheduling table, and announces the result.
func (e *Engine) adoptSchedule(ctx context.Context, s *schedule.Schedule, reoptimized bool) {
	e.sched = s
	e.applyShortfallOverrides(s)
	if recs := s.Records(); len(recs) > 0 {
		if err := e.store.Append(ctx, store.TableScheduling, recs...); err != nil {
			e.log.Warnf("scheduling rows not persisted: %v", err)
		}
	}
	outcome := "solved"
	if s.Fallback {
		outcome = "fallback"
	}
	solveRuns.WithLabelValues(outcome).Inc()
	if e.bus != nil {
		e.bus.Publish(events.ScheduleEvent{
			Start:       s.Start,
			Status:      s.Status.String(),
			Fallback:    s.Fallback,
			Reoptimized: reoptimized,
			UnmetKWh:    s.Summary.UnmetKWh,
		})
	}
}

// applyShortfallOverrides reacts to unmet pre-departure energy: the
// affected vessel's charger is forced to rated power for every remaining
// timestep the vessel is forecast present, superseding the optimizer's
// allocation for that charger only.
func (e *Engine) applyShortfallOverrides(s *schedule.Schedule) {
	for vessel, missing := range s.Shortfall {
		boat := e.port.BoatByName(vessel)
		ch := e.chargerFor(vessel)
		if boat == nil || ch == nil {
			continue
		}
		pct := 100 * missing / boat.BatteryKWh
		e.log.Warnf("%s short %.1f kWh (%.0f%% of battery) before departure, forcing %s to %.0f kW while ashore",
			vessel, missing, pct, ch.Name, ch.RatedPowerKW)
		shortfallKWh.WithLabelValues(vessel).Set(missing)
		series, ok := s.ChargerKW[ch.Name]
		if !ok {
			continue
		}
		for i := range e.fcs {
			if i >= len(series) {
				break
			}
			if avail, found := e.fcs[i].Available[vessel]; found && !avail {
				continue
			}
			series[i] = ch.RatedPowerKW
		}
		if e.bus != nil {
			e.bus.Publish(events.ShortfallEvent{
				Vessel:      vessel,
				MissingKWh:  missing,
				CapacityPct: pct,
				At:          s.Start,
			})
		}
	}
}

// chargerFor returns the charger whose schedule an override for the
// vessel should touch: the connected one, or the vessel's home charger.
func (e *Engine) chargerFor(vessel string) *model.Charger {
	if c := e.chargerOf[vessel]; c != nil {
		return c
	}
	return e.home[vessel]
}

// advanceTrips drives every vessel's trip state machine one step.
func (e *Engine) advanceTrips(t time.Time) {
	for _, b := range e.port.Boats {
		st := e.states[b.Name]
		if st.run != nil {
			if st.run.started {
				e.progressTrip(b, st, t)
			} else {
				e.retryDelayed(b, st, t)
			}
			continue
		}
		e.tryNextSlot(b, st, t)
	}
}

// tryNextSlot starts the vessel's next assigned trip once its departure
// window opens: immediately when the stored energy covers the estimate,
// otherwise as a delayed trip retried every timestep.
func (e *Engine) tryNextSlot(b *model.Boat, st *vesselState, t time.Time) {
	dayTrips := e.asg[b.Name]
	for st.nextSlot < len(dayTrips) {
		slot := st.nextSlot
		trip := dayTrips[slot]
		if trip == nil {
			st.nextSlot++
			continue
		}
		dep := trips.SlotStart(e.day, slot)
		if t.Before(dep) {
			return
		}
		st.nextSlot++
		st.run = &tripRun{trip: trip, slot: slot}
		if e.canSail(b, trip) {
			e.startTrip(b, st, t)
		} else {
			st.run.delayed = true
			e.log.Warnf("%s delays %s: %.1f kWh stored, %.1f kWh required",
				b.Name, trip.Name, b.StoredKWh(), trip.EnergyKWh(b.KFactor()))
			e.publishTrip(b.Name, trip.Name, events.TripDelayed, t)
		}
		return
	}
}

func (e *Engine) canSail(b *model.Boat, trip *model.Trip) bool {
	return b.StoredKWh() >= trip.EnergyKWh(b.KFactor())-1e-9
}

func (e *Engine) startTrip(b *model.Boat, st *vesselState, t time.Time) {
	if ch := e.chargerOf[b.Name]; ch != nil {
		e.disconnect(b, ch)
	}
	st.run.started = true
	st.run.delayed = false
	st.run.elapsed = 0
	b.State = model.BoatSailing
	e.removeArrival(b.Name)
	e.reopt = true
	e.log.Infof("%s departs on %s at %.0f%% charge", b.Name, st.run.trip.Name, 100*b.SoC)
	e.publishTrip(b.Name, st.run.trip.Name, events.TripStarted, t)
}

// retryDelayed re-attempts a postponed departure until the battery
// suffices or the cutoff hour cancels the trip for the day.
func (e *Engine) retryDelayed(b *model.Boat, st *vesselState, t time.Time) {
	if e.canSail(b, st.run.trip) {
		e.startTrip(b, st, t)
		return
	}
	if t.Hour() >= e.cutoffHour {
		e.log.Warnf("%s cancels %s: still short of charge at the %02d:00 cutoff", b.Name, st.run.trip.Name, e.cutoffHour)
		e.publishTrip(b.Name, st.run.trip.Name, events.TripCancelled, t)
		st.run = nil
	}
}

// progressTrip drains the battery along the route's speed profile and
// completes the trip once its nominal duration has elapsed.
func (e *Engine) progressTrip(b *model.Boat, st *vesselState, t time.Time) {
	run := st.run
	speed := run.trip.SpeedAt(run.elapsed)
	need := b.SailPowerKW(speed) * e.step.Hours()
	if drained := b.Discharge(need); drained+1e-9 < need {
		e.log.Debugf("%s ran out of energy sailing %s", b.Name, run.trip.Name)
	}
	run.elapsed += e.step
	if run.elapsed < run.trip.Duration() {
		return
	}
	b.State = model.BoatIdle
	st.run = nil
	e.arrivals = append(e.arrivals, b.Name)
	e.reopt = true
	e.log.Infof("%s returns from %s at %.0f%% charge", b.Name, run.trip.Name, 100*b.SoC)
	e.publishTrip(b.Name, run.trip.Name, events.TripCompleted, t)
}

// updateRenewables recomputes each array's output from the current
// weather sample. A missing sample defaults to night conditions, so
// output drops to zero rather than erroring.
func (e *Engine) updateRenewables(t time.Time) {
	s := weather.At(e.samples, t)
	for _, pv := range e.port.PVArrays {
		pv.OutputKW = e.yield.ACPowerKW(s, *pv, t, e.port.Lat, e.port.Lon)
	}
}

// applyCharging converts each connected charger's draw into stored vessel
// energy and releases vessels that are effectively full.
func (e *Engine) applyCharging(t time.Time) {
	for _, c := range e.port.Chargers {
		b := c.Boat
		if b == nil {
			continue
		}
		b.Charge(c.DeliveredKWh(e.step))
		if b.SoC >= socDisconnect {
			e.log.Debugf("%s full at %.1f%%, releasing %s", b.Name, 100*b.SoC, c.Name)
			e.disconnect(b, c)
		}
	}
}

// maybeReoptimize rebuilds the remainder-of-day schedule after a trip
// transition. Rows already written for earlier timesteps stay in the
// store; only the remainder is cleared and replaced, so the new plan
// reflects the true state of charge at decision time.
func (e *Engine) maybeReoptimize(ctx context.Context, t time.Time) {
	if e.mode != ModeIncremental || e.builder == nil {
		return
	}
	if h := t.Hour(); h < e.reoptFrom || h >= e.reoptTo {
		return
	}
	fcs, err := e.fc.From(ctx, t, e.asg)
	if err != nil {
		e.log.Errorf("re-forecast failed: %v", err)
		return
	}
	if len(fcs) == 0 {
		return
	}
	solveStart := time.Now()
	s, err := e.builder.BuildAndSolve(ctx, e.day, fcs, e.asg)
	solveDuration.Observe(time.Since(solveStart).Seconds())
	if err != nil {
		e.log.Errorf("re-optimization failed: %v", err)
		return
	}
	end := e.day.Add(24 * time.Hour)
	for _, c := range e.port.Chargers {
		e.clearSetpoints(ctx, c.Name, t, end)
	}
	for _, bat := range e.port.Batteries {
		e.clearSetpoints(ctx, bat.Name, t, end)
	}
	e.fcs = fcs
	e.adoptSchedule(ctx, s, true)
	e.log.Infof("re-optimized %d remaining timesteps", s.Steps)
}

func (e *Engine) clearSetpoints(ctx context.Context, source string, start, end time.Time) {
	err := e.store.DeleteRange(ctx, store.TableScheduling, source, store.MetricPowerSetpoint, start, end)
	if err != nil && !errors.Is(err, store.ErrUnsupported) {
		e.log.Warnf("could not clear %s setpoints: %v", source, err)
	}
}

// emitMeasurements writes one record per tracked metric for the timestep.
// Persistence failures are logged and swallowed.
func (e *Engine) emitMeasurements(ctx context.Context, t time.Time) {
	recs := make([]store.Record, 0, 2*len(e.port.Boats)+2*len(e.port.Chargers)+2*len(e.port.Batteries)+len(e.port.PVArrays)+4)
	addNum := func(source, metric string, v float64) {
		recs = append(recs, store.Record{Time: t, Source: source, Metric: metric, Value: store.FormatValue(v)})
	}
	addStr := func(source, metric, v string) {
		recs = append(recs, store.Record{Time: t, Source: source, Metric: metric, Value: v})
	}

	for _, b := range e.port.Boats {
		addNum(b.Name, store.MetricSoC, b.SoC)
		addStr(b.Name, store.MetricState, b.State.String())
		vesselSoC.WithLabelValues(b.Name).Set(b.SoC)
	}
	for _, c := range e.port.Chargers {
		addNum(c.Name, store.MetricPowerKW, c.PowerKW)
		addStr(c.Name, store.MetricState, c.State.String())
	}
	for _, bat := range e.port.Batteries {
		addNum(bat.Name, store.MetricSoC, bat.SoC)
		addNum(bat.Name, store.MetricPowerKW, bat.PowerKW)
	}
	for _, pv := range e.port.PVArrays {
		addNum(pv.Name, store.MetricPVPowerKW, pv.OutputKW)
	}

	production := e.port.PVOutputKW()
	consumption := e.port.ChargerDrawKW()
	for _, bat := range e.port.Batteries {
		if bat.PowerKW > 0 {
			production += bat.PowerKW
		} else {
			consumption -= bat.PowerKW
		}
	}
	gridImport := consumption - production
	var gridExport float64
	if gridImport < 0 {
		gridExport = -gridImport
		gridImport = 0
	}
	addNum(store.SourcePort, store.MetricPVTotalKW, e.port.PVOutputKW())
	addNum(store.SourcePort, store.MetricConsumptionKW, consumption)
	addNum(store.SourcePort, store.MetricGridImportKW, gridImport)
	addNum(store.SourcePort, store.MetricGridExportKW, gridExport)
	gridImportKW.Set(gridImport)

	if err := e.store.Append(ctx, store.TableMeasurements, recs...); err != nil {
		e.log.Warnf("measurements not persisted: %v", err)
	}
}

func (e *Engine) publishTrip(vessel, route string, action events.TripAction, t time.Time) {
	tripTransitions.WithLabelValues(string(action)).Inc()
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.TripEvent{Vessel: vessel, Route: route, Action: action, At: t})
}

// connect and disconnect are the only mutation points of the engine-owned
// vessel-to-charger map.
func (e *Engine) connect(b *model.Boat, c *model.Charger) {
	c.Connect(b)
	e.chargerOf[b.Name] = c
}

func (e *Engine) disconnect(b *model.Boat, c *model.Charger) {
	c.ToIdle()
	delete(e.chargerOf, b.Name)
}

func (e *Engine) removeArrival(name string) {
	for i, n := range e.arrivals {
		if n == name {
			e.arrivals = append(e.arrivals[:i], e.arrivals[i+1:]...)
			return
		}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
