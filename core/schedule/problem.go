package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/core/trips"
)

// Tunables are the scheduling weights and thresholds. None of them derive
// from physics, so they are configuration defaults rather than constants.
type Tunables struct {
	// SlackPenaltyPerKWh weights deadline slack in soft-constrained
	// variants. Large values make shortfall a last resort.
	SlackPenaltyPerKWh float64
	// UrgencyWindow is how close a departure must be for a vessel to
	// receive the urgency bonus in the reliability-first objective.
	UrgencyWindow time.Duration
	// LateAlpha is the exponent slope of the late-delivery penalty in
	// the cost-minimizing variant.
	LateAlpha float64
	// CostWeight scales the grid-cost bias in the reliability-first
	// objective.
	CostWeight float64
}

// DefaultTunables returns the standard weights.
func DefaultTunables() Tunables {
	return Tunables{
		SlackPenaltyPerKWh: 1000,
		UrgencyWindow:      5 * time.Hour,
		LateAlpha:          0.5,
		CostWeight:         0.5,
	}
}

// deadline is one departure a vessel must be charged for. Energy delivered
// strictly before At must reach CumKWh, the requirement summed over this
// and every earlier departure inside the horizon.
type deadline struct {
	Slot   int
	At     time.Time
	CumKWh float64
}

// slackVar ties a soft-deadline slack variable back to its vessel so
// shortfall can be attributed after the solve.
type slackVar struct {
	Vessel string
	Name   string
}

// gridTieBreak is a vanishing cost on grid import added by variants whose
// objective would otherwise leave the grid variable free to float anywhere
// above the balance requirement.
const gridTieBreak = 1e-6

// maxLateExponent caps the late-penalty exponent so coefficient magnitudes
// stay within what the simplex handles cleanly.
const maxLateExponent = 12.0

// problem assembles the optimization model shared by all variants:
// variables for charger, grid, battery and per-vessel energy, the balance
// and energy-conservation constraints, and the deadline constraints in
// either hard or soft form.
type problem struct {
	port      *model.Port
	fcs       []forecast.EnergyForecast
	m         *solver.Model
	step      time.Duration
	dtH       float64
	deadlines map[string][]deadline
}

func newProblem(port *model.Port, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments, step time.Duration) *problem {
	p := &problem{
		port: port,
		fcs:  fcs,
		m:    solver.NewModel(),
		step: step,
		dtH:  step.Hours(),
	}
	p.deadlines = buildDeadlines(port, date, fcs[0].Time, asg)
	p.addVariables()
	p.addBalance()
	p.addConservation()
	return p
}

// buildDeadlines derives the cumulative energy deadlines per vessel from
// the day's assignments. Departures at or before the horizon start are no
// longer schedulable and are dropped, so a mid-day rebuild only constrains
// the trips still ahead.
func buildDeadlines(port *model.Port, date, start time.Time, asg trips.Assignments) map[string][]deadline {
	out := make(map[string][]deadline)
	for _, b := range port.Boats {
		k := b.KFactor()
		var cum float64
		for slot, trip := range asg[b.Name] {
			if trip == nil {
				continue
			}
			dep := trips.SlotStart(date, slot)
			if !dep.After(start) {
				continue
			}
			cum += trip.EnergyKWh(k)
			out[b.Name] = append(out[b.Name], deadline{Slot: slot, At: dep, CumKWh: cum})
		}
	}
	return out
}

func varChg(name string, i int) string { return fmt.Sprintf("chg_%s_%d", name, i) }

func varGrid(i int) string { return fmt.Sprintf("grid_%d", i) }

func varBess(name string, i int) string { return fmt.Sprintf("bess_%s_%d", name, i) }

func varEnergy(name string, i int) string { return fmt.Sprintf("e_%s_%d", name, i) }

func varSlack(name string, slot int) string { return fmt.Sprintf("slack_%s_%d", name, slot) }

// available reports whether the forecast marks the vessel present at this
// timestep. Forecasts without availability data leave every vessel
// available.
func available(fc *forecast.EnergyForecast, vessel string) bool {
	if len(fc.Available) == 0 {
		return true
	}
	avail, ok := fc.Available[vessel]
	return !ok || avail
}

// chargersOff reports whether every charger must idle at this timestep
// because no vessel is forecast present.
func chargersOff(fc *forecast.EnergyForecast) bool {
	return len(fc.Available) > 0 && fc.AvailableCount() == 0
}

func (p *problem) addVariables() {
	for i := range p.fcs {
		fc := &p.fcs[i]
		off := chargersOff(fc)
		for _, c := range p.port.Chargers {
			upper := c.RatedPowerKW
			if off {
				upper = 0
			}
			p.m.AddVar(varChg(c.Name, i), 0, upper)
		}
		p.m.AddVar(varGrid(i), 0, p.port.ContractedPowerKW)
		for _, b := range p.port.Batteries {
			p.m.AddVar(varBess(b.Name, i), -b.MaxChargeKW, b.MaxDischargeKW)
		}
		for _, b := range p.port.Boats {
			upper := math.Inf(1)
			if !available(fc, b.Name) {
				upper = 0
			}
			p.m.AddVar(varEnergy(b.Name, i), 0, upper)
		}
	}
}

// addBalance constrains, per timestep, grid import plus forecast renewable
// output plus battery net power to cover the total charger draw. Renewable
// output enters as a constant, so surplus beyond the charger draw simply
// spills.
func (p *problem) addBalance() {
	for i := range p.fcs {
		terms := make([]solver.Term, 0, 1+len(p.port.Batteries)+len(p.port.Chargers))
		terms = append(terms, solver.Term{Var: varGrid(i), Coeff: 1})
		for _, b := range p.port.Batteries {
			terms = append(terms, solver.Term{Var: varBess(b.Name, i), Coeff: 1})
		}
		for _, c := range p.port.Chargers {
			terms = append(terms, solver.Term{Var: varChg(c.Name, i), Coeff: -1})
		}
		p.m.AddConstraint(fmt.Sprintf("balance_%d", i), terms, solver.GE, -p.fcs[i].TotalPVKW)
	}
}

// addConservation ties, per timestep, the energy attributed to vessels to
// the total charger output. The per-vessel energy variables keep the model
// linear in fleet size instead of introducing charger-vessel pairings.
func (p *problem) addConservation() {
	for i := range p.fcs {
		terms := make([]solver.Term, 0, len(p.port.Chargers)+len(p.port.Boats))
		for _, c := range p.port.Chargers {
			terms = append(terms, solver.Term{Var: varChg(c.Name, i), Coeff: p.dtH})
		}
		for _, b := range p.port.Boats {
			terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: -1})
		}
		p.m.AddConstraint(fmt.Sprintf("conservation_%d", i), terms, solver.EQ, 0)
	}
}

// addDeadlines adds one cumulative minimum-energy constraint per vessel
// departure. With hard set, the inequality is direct and an unlucky fleet
// makes the model infeasible; otherwise each constraint receives a
// non-negative slack variable and the returned references let the caller
// penalize slack in the objective, so the solve always terminates with a
// quantified shortfall instead of infeasibility.
func (p *problem) addDeadlines(hard bool) []slackVar {
	var slacks []slackVar
	for _, b := range p.port.Boats {
		for _, d := range p.deadlines[b.Name] {
			if d.CumKWh <= 0 {
				continue
			}
			var terms []solver.Term
			for i := range p.fcs {
				if p.fcs[i].Time.Before(d.At) {
					terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: 1})
				}
			}
			name := fmt.Sprintf("deadline_%s_%d", b.Name, d.Slot)
			if hard {
				p.m.AddConstraint(name, terms, solver.GE, d.CumKWh)
				continue
			}
			sv := varSlack(b.Name, d.Slot)
			p.m.AddVar(sv, 0, math.Inf(1))
			terms = append(terms, solver.Term{Var: sv, Coeff: 1})
			p.m.AddConstraint(name, terms, solver.GE, d.CumKWh)
			slacks = append(slacks, slackVar{Vessel: b.Name, Name: sv})
		}
	}
	return slacks
}

// addDeliveryFloor requires the total energy delivered over the horizon to
// reach at least the given amount.
func (p *problem) addDeliveryFloor(kwh float64) {
	var terms []solver.Term
	for i := range p.fcs {
		for _, b := range p.port.Boats {
			terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: 1})
		}
	}
	p.m.AddConstraint("delivery_floor", terms, solver.GE, kwh)
}

// priceAt returns the grid price at t, zero without a tariff.
func priceAt(port *model.Port, t time.Time) float64 {
	if port.Tariff == nil {
		return 0
	}
	return port.Tariff.PriceAt(t)
}

// nextDeadlineAfter returns the vessel's first departure strictly after t.
func (p *problem) nextDeadlineAfter(vessel string, t time.Time) (time.Time, bool) {
	for _, d := range p.deadlines[vessel] {
		if d.At.After(t) {
			return d.At, true
		}
	}
	return time.Time{}, false
}

// lastDeadline returns the vessel's final departure of the horizon.
func (p *problem) lastDeadline(vessel string) (time.Time, bool) {
	ds := p.deadlines[vessel]
	if len(ds) == 0 {
		return time.Time{}, false
	}
	return ds[len(ds)-1].At, true
}

// stepIndexAtOrAfter returns the first timestep index whose timestamp is
// not before t.
func (p *problem) stepIndexAtOrAfter(t time.Time) int {
	start := p.fcs[0].Time
	if t.Before(start) {
		return 0
	}
	idx := int(t.Sub(start) / p.step)
	if start.Add(time.Duration(idx) * p.step).Before(t) {
		idx++
	}
	return idx
}
