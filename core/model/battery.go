package model

import (
	"fmt"
	"math"
	"time"
)

// Battery models a stationary storage unit (BESS) connected to the port bus.
// Positive power means discharging towards the bus, negative means charging.
type Battery struct {
	Name           string
	CapacityKWh    float64 // total energy capacity
	MaxChargeKW    float64 // maximum charging power
	MaxDischargeKW float64 // maximum discharging power
	Efficiency     float64 // round-trip efficiency in (0,1]
	SoCMin         float64 // lower state of charge bound
	SoCMax         float64 // upper state of charge bound
	SoC            float64 // current state of charge
	PowerKW        float64 // current net power, positive when discharging
}

// Validate checks that the battery configuration is sound.
func (b *Battery) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("battery name must not be empty")
	}
	if b.CapacityKWh <= 0 {
		return fmt.Errorf("battery %s: capacity must be positive", b.Name)
	}
	if b.MaxChargeKW <= 0 || b.MaxDischargeKW <= 0 {
		return fmt.Errorf("battery %s: charge and discharge rates must be positive", b.Name)
	}
	if b.Efficiency <= 0 || b.Efficiency > 1 {
		return fmt.Errorf("battery %s: efficiency %.3f outside (0,1]", b.Name, b.Efficiency)
	}
	if b.SoCMin < 0 || b.SoCMax > 1 || b.SoCMin >= b.SoCMax {
		return fmt.Errorf("battery %s: soc bounds [%.2f,%.2f] invalid", b.Name, b.SoCMin, b.SoCMax)
	}
	if b.SoC < b.SoCMin || b.SoC > b.SoCMax {
		return fmt.Errorf("battery %s: soc %.3f outside [%.2f,%.2f]", b.Name, b.SoC, b.SoCMin, b.SoCMax)
	}
	return nil
}

// ApplyPower updates the SoC according to the requested bus-side power and
// duration. Positive power discharges, negative charges. Rate limits and SoC
// bounds are enforced; the power actually applied is returned so accounting
// always matches realizable behavior.
//
// Charging stores power*efficiency over the interval; discharging drains
// power/efficiency from storage, so one full charge/discharge cycle at equal
// power and duration lowers the SoC by P*T*(1/eff - eff)/capacity.
func (b *Battery) ApplyPower(powerKW float64, dt time.Duration) float64 {
	hours := dt.Hours()
	if hours <= 0 || powerKW == 0 {
		b.PowerKW = 0
		return 0
	}

	actual := powerKW
	if powerKW > 0 { // discharge
		if actual > b.MaxDischargeKW {
			actual = b.MaxDischargeKW
		}
		avail := (b.SoC - b.SoCMin) * b.CapacityKWh
		drained := actual / b.Efficiency * hours
		if drained > avail {
			drained = avail
			actual = drained * b.Efficiency / hours
		}
		b.SoC -= drained / b.CapacityKWh
		if b.SoC < b.SoCMin {
			b.SoC = b.SoCMin
		}
	} else { // charge
		p := math.Abs(powerKW)
		if p > b.MaxChargeKW {
			p = b.MaxChargeKW
		}
		headroom := (b.SoCMax - b.SoC) * b.CapacityKWh
		stored := p * b.Efficiency * hours
		if stored > headroom {
			stored = headroom
			p = stored / b.Efficiency / hours
		}
		b.SoC += stored / b.CapacityKWh
		if b.SoC > b.SoCMax {
			b.SoC = b.SoCMax
		}
		actual = -p
	}
	b.PowerKW = actual
	return actual
}

// HeadroomKW returns the highest charging power the battery could accept for
// the given interval without breaking its upper SoC bound.
func (b *Battery) HeadroomKW(dt time.Duration) float64 {
	hours := dt.Hours()
	if hours <= 0 {
		return 0
	}
	headroom := (b.SoCMax - b.SoC) * b.CapacityKWh
	p := headroom / b.Efficiency / hours
	if p > b.MaxChargeKW {
		p = b.MaxChargeKW
	}
	if p < 0 {
		p = 0
	}
	return p
}
