package schedule

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/logger"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/core/trips"
)

// Variant selects one of the interchangeable optimization strategies.
type Variant string

const (
	// VariantCost minimizes tariff-weighted grid cost under hard
	// deadlines, with an exponential penalty on late delivery and a
	// conservative floor on total delivered energy.
	VariantCost Variant = "cost"
	// VariantThroughput maximizes total charging throughput under hard
	// deadlines, a stress-test baseline without deadline weighting.
	VariantThroughput Variant = "throughput"
	// VariantReliabilityFirst favors early and urgent delivery with
	// soft deadlines, trading a bounded shortfall for guaranteed
	// solver termination. Default.
	VariantReliabilityFirst Variant = "reliability-first"
)

// ParseVariant maps a configuration string to a Variant. Empty selects the
// default.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantCost, VariantThroughput, VariantReliabilityFirst:
		return Variant(s), nil
	case "":
		return VariantReliabilityFirst, nil
	default:
		return "", fmt.Errorf("unknown optimizer variant %q", s)
	}
}

// Builder constructs and solves one scheduling problem over a forecast
// horizon. The returned schedule covers every forecast timestep even when
// the solve fails; only an empty horizon is an error.
type Builder interface {
	BuildAndSolve(ctx context.Context, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments) (*Schedule, error)
}

// Config carries the collaborators and weights every variant needs.
type Config struct {
	Port     *model.Port
	Step     time.Duration
	Solver   solver.Solver
	Budget   time.Duration // wall-clock ceiling per solve
	Tunables Tunables
	Log      logger.Logger
}

const defaultBudget = 10 * time.Second

// shortfallEps is the slack magnitude below which a deadline counts as
// met, absorbing solver numerical noise.
const shortfallEps = 1e-6

// New returns the builder for the chosen variant. Selection happens once
// at construction; the engine never switches strategies mid-run.
func New(v Variant, cfg Config) (Builder, error) {
	if cfg.Port == nil {
		return nil, fmt.Errorf("schedule: port must not be nil")
	}
	if cfg.Solver == nil {
		return nil, fmt.Errorf("schedule: solver must not be nil")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("schedule: logger must not be nil")
	}
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("schedule: step must be positive")
	}
	if cfg.Budget <= 0 {
		cfg.Budget = defaultBudget
	}
	if cfg.Tunables == (Tunables{}) {
		cfg.Tunables = DefaultTunables()
	}
	b := base{cfg: cfg}
	switch v {
	case VariantCost:
		return &costBuilder{b}, nil
	case VariantThroughput:
		return &throughputBuilder{b}, nil
	case VariantReliabilityFirst:
		return &reliabilityFirstBuilder{b}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer variant %q", v)
	}
}

// variantSpec finishes the shared problem with one variant's deadline form
// and objective, returning any slack variables it introduced.
type variantSpec interface {
	finish(p *problem, tun Tunables) []slackVar
}

type base struct {
	cfg Config
}

// run executes the shared pipeline: assemble the common model, let the
// variant finish it, solve within the budget, then extract or fall back.
// Solve failures are absorbed here so the caller always receives a
// schedule spanning the horizon.
func (b *base) run(ctx context.Context, v variantSpec, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments) (*Schedule, error) {
	if len(fcs) == 0 {
		return nil, fmt.Errorf("schedule: no forecasts for %s", date.Format("2006-01-02"))
	}
	p := newProblem(b.cfg.Port, date, fcs, asg, b.cfg.Step)
	slacks := v.finish(p, b.cfg.Tunables)
	res, err := b.cfg.Solver.Solve(ctx, p.m, b.cfg.Budget)
	if err != nil {
		b.cfg.Log.Errorf("schedule solve failed: %v", err)
		return b.fallback(fcs, solver.StatusError), nil
	}
	if !res.Status.Usable() || !res.HasValues() {
		b.cfg.Log.Warnf("schedule solve unusable (status %s), using fallback", res.Status)
		return b.fallback(fcs, res.Status), nil
	}
	s := b.extract(p, res, slacks)
	for vessel, kwh := range s.Shortfall {
		b.cfg.Log.Warnf("schedule leaves %s short %.1f kWh before departure", vessel, kwh)
	}
	return s, nil
}

// extract turns a usable solve into a schedule. Charger, grid and vessel
// values are clamped to zero from below so solver numerical noise never
// produces negative power.
func (b *base) extract(p *problem, res solver.Result, slacks []slackVar) *Schedule {
	port := b.cfg.Port
	n := len(p.fcs)
	s := &Schedule{
		Start:     p.fcs[0].Time,
		Step:      b.cfg.Step,
		Steps:     n,
		ChargerKW: make(map[string][]float64, len(port.Chargers)),
		BatteryKW: make(map[string][]float64, len(port.Batteries)),
		VesselKWh: make(map[string][]float64, len(port.Boats)),
		GridKW:    make([]float64, n),
		Status:    res.Status,
	}
	for _, c := range port.Chargers {
		series := make([]float64, n)
		for i := range series {
			series[i] = clampNonNeg(res.Value(varChg(c.Name, i)))
		}
		s.ChargerKW[c.Name] = series
	}
	for _, bat := range port.Batteries {
		series := make([]float64, n)
		for i := range series {
			series[i] = res.Value(varBess(bat.Name, i))
		}
		s.BatteryKW[bat.Name] = series
	}
	for _, boat := range port.Boats {
		series := make([]float64, n)
		for i := range series {
			series[i] = clampNonNeg(res.Value(varEnergy(boat.Name, i)))
		}
		s.VesselKWh[boat.Name] = series
	}
	for i := range s.GridKW {
		s.GridKW[i] = clampNonNeg(res.Value(varGrid(i)))
	}
	for _, sv := range slacks {
		if v := res.Value(sv.Name); v > shortfallEps {
			if s.Shortfall == nil {
				s.Shortfall = make(map[string]float64)
			}
			s.Shortfall[sv.Vessel] += v
		}
	}
	s.Summary = b.summarize(s)
	return s
}

// fallback builds the deterministic heuristic schedule: contracted power
// split evenly across the chargers, each capped at its rating, at every
// timestep a vessel is forecast present. Batteries idle. Every timestep is
// populated so a failed solve never stalls the engine.
func (b *base) fallback(fcs []forecast.EnergyForecast, status solver.Status) *Schedule {
	port := b.cfg.Port
	n := len(fcs)
	s := &Schedule{
		Start:     fcs[0].Time,
		Step:      b.cfg.Step,
		Steps:     n,
		ChargerKW: make(map[string][]float64, len(port.Chargers)),
		BatteryKW: make(map[string][]float64, len(port.Batteries)),
		VesselKWh: make(map[string][]float64),
		GridKW:    make([]float64, n),
		Status:    status,
		Fallback:  true,
	}
	var share float64
	if len(port.Chargers) > 0 {
		share = port.ContractedPowerKW / float64(len(port.Chargers))
	}
	for _, c := range port.Chargers {
		kw := math.Min(share, c.RatedPowerKW)
		series := make([]float64, n)
		for i := range fcs {
			if chargersOff(&fcs[i]) {
				continue
			}
			series[i] = kw
		}
		s.ChargerKW[c.Name] = series
	}
	for _, bat := range port.Batteries {
		s.BatteryKW[bat.Name] = make([]float64, n)
	}
	for i := range fcs {
		g := s.TotalChargerKW(i) - fcs[i].TotalPVKW
		if g < 0 {
			g = 0
		}
		s.GridKW[i] = g
	}
	s.Summary = b.summarize(s)
	return s
}

func (b *base) summarize(s *Schedule) Summary {
	dtH := s.Step.Hours()
	var sum Summary
	for i := 0; i < s.Steps; i++ {
		total := s.TotalChargerKW(i)
		if total > sum.PeakKW {
			sum.PeakKW = total
		}
		sum.EnergyKWh += total * dtH
		t := s.Start.Add(time.Duration(i) * s.Step)
		sum.CostEUR += priceAt(b.cfg.Port, t) * s.GridKW[i] * dtH
	}
	for _, v := range s.Shortfall {
		sum.UnmetKWh += v
	}
	return sum
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
