package sim

import (
	"math"
	"time"
)

// dispatchBatteries drives the stationary storage. With a schedule in
// hand each battery follows its setpoint; otherwise a local rule applies:
// soak up renewable surplus, top up from the grid at cheap hours while no
// vessel is drawing, and hold otherwise.
func (e *Engine) dispatchBatteries(t time.Time) {
	if len(e.port.Batteries) == 0 {
		return
	}
	if e.sched != nil {
		e.followBatterySetpoints(t)
		return
	}
	e.ruleBasedBatteries(t)
}

func (e *Engine) followBatterySetpoints(t time.Time) {
	surplus := e.port.PVOutputKW() - e.port.ChargerDrawKW()
	for _, bat := range e.port.Batteries {
		target := e.sched.BatteryPowerAt(bat.Name, t)
		if math.Abs(target) > powerEps {
			bat.ApplyPower(target, e.step)
			if target < 0 {
				surplus += target
			}
			continue
		}
		// idle per plan, but free solar is never wasted
		if surplus > powerEps {
			surplus += bat.ApplyPower(-surplus, e.step)
		} else {
			bat.ApplyPower(0, e.step)
		}
	}
}

func (e *Engine) ruleBasedBatteries(t time.Time) {
	surplus := e.port.PVOutputKW() - e.port.ChargerDrawKW()
	cheap := e.cheapHour(t)
	idleChargers := e.port.ChargerDrawKW() <= powerEps
	budget := e.port.ContractedPowerKW - e.port.ChargerDrawKW()
	for _, bat := range e.port.Batteries {
		switch {
		case surplus > powerEps:
			surplus += bat.ApplyPower(-surplus, e.step)
		case cheap && idleChargers && budget > powerEps:
			req := math.Min(bat.MaxChargeKW, budget)
			budget += bat.ApplyPower(-req, e.step)
		default:
			bat.ApplyPower(0, e.step)
		}
	}
}

// cheapHour reports whether grid energy is cheap enough for standby
// charging: below the configured price when a tariff exists, or the
// 22:00 to 06:00 off-peak window without one.
func (e *Engine) cheapHour(t time.Time) bool {
	if e.port.Tariff != nil {
		return e.port.Tariff.PriceAt(t) <= e.cheapPriceEUR
	}
	h := t.Hour()
	return h >= 22 || h < 6
}
