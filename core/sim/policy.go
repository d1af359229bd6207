package sim

import (
	"fmt"
	"time"

	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/trips"
)

// Policy selects how chargers are matched to vessels each timestep.
type Policy string

const (
	// PolicySchedule follows the optimizer's per-charger setpoints.
	PolicySchedule Policy = "schedule"
	// PolicyPowerLimited serves vessels first-come first-served and
	// scales draws down so grid import stays under the contracted cap.
	PolicyPowerLimited Policy = "power-limited"
	// PolicyUnlimited serves vessels first-come first-served at rated
	// power with no cap, as a what-if baseline.
	PolicyUnlimited Policy = "unlimited"
)

// ParsePolicy maps a configuration string to a Policy. Empty selects the
// schedule-following policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySchedule, PolicyPowerLimited, PolicyUnlimited:
		return Policy(s), nil
	case "":
		return PolicySchedule, nil
	default:
		return "", fmt.Errorf("unknown charging policy %q", s)
	}
}

const powerEps = 1e-6

// assignPolicy decides, once per timestep, which vessel each charger
// serves and at what power. Implementations mutate connections only
// through the engine's connect and disconnect helpers.
type assignPolicy interface {
	assign(e *Engine, t time.Time)
}

func newAssignPolicy(p Policy, builder schedule.Builder) (assignPolicy, error) {
	if p == "" {
		p = PolicySchedule
	}
	switch p {
	case PolicySchedule:
		if builder == nil {
			return nil, fmt.Errorf("sim: %s policy needs a schedule builder", p)
		}
		return schedulePolicy{}, nil
	case PolicyPowerLimited:
		return fcfsPolicy{limited: true}, nil
	case PolicyUnlimited:
		return fcfsPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown charging policy %q", p)
	}
}

// schedulePolicy applies the optimizer's allocation: chargers with a
// nonzero setpoint get a vessel, the rest sit idle.
type schedulePolicy struct{}

func (schedulePolicy) assign(e *Engine, t time.Time) {
	for _, c := range e.port.Chargers {
		target := 0.0
		if e.sched != nil {
			target = e.sched.ChargerPowerAt(c.Name, t)
		}
		if c.Boat != nil && target <= powerEps {
			e.disconnect(c.Boat, c)
		}
		if c.Boat == nil && target > powerEps {
			if b := e.nextVessel(t); b != nil {
				e.connect(b, c)
			}
		}
		if c.Boat != nil {
			c.SetPower(target)
		} else {
			c.SetPower(0)
		}
	}
}

// nextVessel picks the ashore vessel most in need of charge: the one with
// the soonest upcoming departure, ties broken by lowest state of charge.
func (e *Engine) nextVessel(t time.Time) *model.Boat {
	var best *model.Boat
	var bestDep time.Time
	bestHasDep := false
	for _, b := range e.port.Boats {
		if b.State != model.BoatIdle || b.SoC >= socDisconnect {
			continue
		}
		dep, hasDep := e.nextDeparture(b, t)
		switch {
		case best == nil:
		case hasDep && !bestHasDep:
		case hasDep == bestHasDep && hasDep && dep.Before(bestDep):
		case hasDep == bestHasDep && (!hasDep || dep.Equal(bestDep)) && b.SoC < best.SoC:
		default:
			continue
		}
		best, bestDep, bestHasDep = b, dep, hasDep
	}
	return best
}

// nextDeparture returns the vessel's next departure today. A delayed trip
// counts as departing now.
func (e *Engine) nextDeparture(b *model.Boat, t time.Time) (time.Time, bool) {
	st := e.states[b.Name]
	if st == nil {
		return time.Time{}, false
	}
	if st.run != nil && st.run.delayed {
		return t, true
	}
	for slot := st.nextSlot; slot < len(e.asg[b.Name]); slot++ {
		if e.asg[b.Name][slot] != nil {
			return trips.SlotStart(e.day, slot), true
		}
	}
	return time.Time{}, false
}

// fcfsPolicy plugs vessels into free chargers in arrival order. With
// limited set, the combined draw is scaled down proportionally whenever
// it would push grid import past the contracted cap.
type fcfsPolicy struct {
	limited bool
}

func (p fcfsPolicy) assign(e *Engine, t time.Time) {
	for _, b := range e.fcfsQueue() {
		if b.State != model.BoatIdle || b.SoC >= socDisconnect {
			continue
		}
		c := e.freeCharger()
		if c == nil {
			break
		}
		e.connect(b, c)
	}

	total := 0.0
	for _, c := range e.port.Chargers {
		if c.Boat == nil {
			c.SetPower(0)
			continue
		}
		total += c.SetPower(c.RatedPowerKW)
	}
	if !p.limited {
		return
	}
	budget := e.port.ContractedPowerKW + e.port.PVOutputKW()
	if total <= budget || total <= powerEps {
		return
	}
	factor := budget / total
	for _, c := range e.port.Chargers {
		if c.Boat != nil {
			c.SetPower(c.PowerKW * factor)
		}
	}
}

// fcfsQueue orders waiting vessels: delayed departures jump ahead of
// ordinary arrivals, both keeping their relative order.
func (e *Engine) fcfsQueue() []*model.Boat {
	queue := make([]*model.Boat, 0, len(e.arrivals))
	for _, name := range e.arrivals {
		st := e.states[name]
		if st != nil && st.run != nil && st.run.delayed {
			if b := e.port.BoatByName(name); b != nil {
				queue = append(queue, b)
			}
		}
	}
	for _, name := range e.arrivals {
		st := e.states[name]
		if st != nil && st.run != nil && st.run.delayed {
			continue
		}
		if b := e.port.BoatByName(name); b != nil {
			queue = append(queue, b)
		}
	}
	return queue
}

func (e *Engine) freeCharger() *model.Charger {
	for _, c := range e.port.Chargers {
		if c.Boat == nil {
			return c
		}
	}
	return nil
}
