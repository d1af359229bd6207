package schedule

import (
	"context"
	"math"
	"time"

	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/core/trips"
)

// urgencyBoost is the extra per-kWh reward for vessels departing within
// the urgency window in the reliability-first objective.
const urgencyBoost = 2.0

// costBuilder minimizes tariff-weighted grid cost. Deadlines are hard, so
// a fleet the grid cannot serve makes the model infeasible and the run
// falls back. Energy delivered after a vessel's final departure carries an
// exponentially growing penalty: short delays are cheap, long delays are
// not. A floor of twice the fleet's aggregate battery capacity on total
// delivered energy acts as a conservative sizing guard.
type costBuilder struct {
	base
}

func (cb *costBuilder) BuildAndSolve(ctx context.Context, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments) (*Schedule, error) {
	return cb.run(ctx, cb, date, fcs, asg)
}

func (cb *costBuilder) finish(p *problem, tun Tunables) []slackVar {
	p.addDeadlines(true)
	p.addDeliveryFloor(2 * p.port.FleetCapacityKWh())

	terms := make([]solver.Term, 0, len(p.fcs))
	for i := range p.fcs {
		t := p.fcs[i].Time
		terms = append(terms, solver.Term{
			Var:   varGrid(i),
			Coeff: priceAt(p.port, t)*p.dtH + gridTieBreak,
		})
	}
	for _, b := range p.port.Boats {
		last, ok := p.lastDeadline(b.Name)
		if !ok {
			continue
		}
		depIdx := p.stepIndexAtOrAfter(last)
		for i := depIdx; i < len(p.fcs); i++ {
			stepsLate := float64(i - depIdx + 1)
			w := math.Exp(math.Min(tun.LateAlpha*stepsLate, maxLateExponent))
			terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: w})
		}
	}
	p.m.SetObjective(solver.Minimize, terms)
	return nil
}

// throughputBuilder maximizes total delivered energy under hard deadlines
// with no further weighting. It exists as an unconstrained-appetite
// baseline for stressing the other variants against.
type throughputBuilder struct {
	base
}

func (tb *throughputBuilder) BuildAndSolve(ctx context.Context, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments) (*Schedule, error) {
	return tb.run(ctx, tb, date, fcs, asg)
}

func (tb *throughputBuilder) finish(p *problem, tun Tunables) []slackVar {
	p.addDeadlines(true)

	terms := make([]solver.Term, 0, (len(p.port.Boats)+1)*len(p.fcs))
	for i := range p.fcs {
		for _, b := range p.port.Boats {
			terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: 1})
		}
		terms = append(terms, solver.Term{Var: varGrid(i), Coeff: -gridTieBreak})
	}
	p.m.SetObjective(solver.Maximize, terms)
	return nil
}

// reliabilityFirstBuilder is the default strategy. Deadlines are soft with
// heavily penalized slack, so the solve terminates even when the fleet
// outstrips what the grid can deliver and the shortfall comes back
// quantified per vessel. The objective rewards delivering early, rewards
// vessels whose departure is inside the urgency window, and mildly
// penalizes expensive grid hours.
type reliabilityFirstBuilder struct {
	base
}

func (rb *reliabilityFirstBuilder) BuildAndSolve(ctx context.Context, date time.Time, fcs []forecast.EnergyForecast, asg trips.Assignments) (*Schedule, error) {
	return rb.run(ctx, rb, date, fcs, asg)
}

func (rb *reliabilityFirstBuilder) finish(p *problem, tun Tunables) []slackVar {
	slacks := p.addDeadlines(false)

	n := len(p.fcs)
	terms := make([]solver.Term, 0, (len(p.port.Boats)+1)*n+len(slacks))
	for i := range p.fcs {
		t := p.fcs[i].Time
		early := float64(n-i) / float64(n)
		for _, b := range p.port.Boats {
			w := 1 + early
			if next, ok := p.nextDeadlineAfter(b.Name, t); ok && next.Sub(t) <= tun.UrgencyWindow {
				w += urgencyBoost
			}
			terms = append(terms, solver.Term{Var: varEnergy(b.Name, i), Coeff: w})
		}
		terms = append(terms, solver.Term{
			Var:   varGrid(i),
			Coeff: -(tun.CostWeight*priceAt(p.port, t)*p.dtH + gridTieBreak),
		})
	}
	for _, sv := range slacks {
		terms = append(terms, solver.Term{Var: sv.Name, Coeff: -tun.SlackPenaltyPerKWh})
	}
	p.m.SetObjective(solver.Maximize, terms)
	return slacks
}
