package model

import (
	"fmt"
	"math"
)

// BoatState describes the lifecycle state of a vessel.
type BoatState int

const (
	BoatIdle BoatState = iota
	BoatSailing
	BoatCharging
)

// String returns a human-readable representation of the boat state.
func (s BoatState) String() string {
	switch s {
	case BoatIdle:
		return "idle"
	case BoatSailing:
		return "sailing"
	case BoatCharging:
		return "charging"
	default:
		return "unknown"
	}
}

// Boat represents an electric vessel operating from the port.
type Boat struct {
	Name          string
	MotorPowerKW  float64 // rated motor power in kW
	MassKg        float64 // hull mass, informational only
	LengthM       float64 // hull length, informational only
	BatteryKWh    float64 // total battery capacity in kWh
	CruiseSpeedKn float64 // rated cruise speed in knots
	SoC           float64 // state of charge between 0 and 1
	State         BoatState
}

// Validate checks that the boat configuration is sound.
func (b *Boat) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("boat name must not be empty")
	}
	if b.BatteryKWh <= 0 {
		return fmt.Errorf("boat %s: battery capacity must be positive", b.Name)
	}
	if b.MotorPowerKW <= 0 {
		return fmt.Errorf("boat %s: motor power must be positive", b.Name)
	}
	if b.CruiseSpeedKn <= 0 {
		return fmt.Errorf("boat %s: cruise speed must be positive", b.Name)
	}
	if b.SoC < 0 || b.SoC > 1 {
		return fmt.Errorf("boat %s: soc %.3f outside [0,1]", b.Name, b.SoC)
	}
	return nil
}

// KFactor relates speed to propulsion power through the cubic drag law
// P(v) = k*v^3, with k derived from the rated operating point.
func (b *Boat) KFactor() float64 {
	return b.MotorPowerKW / math.Pow(b.CruiseSpeedKn, 3)
}

// SailPowerKW returns the instantaneous propulsion power at the given speed.
func (b *Boat) SailPowerKW(speedKn float64) float64 {
	return b.KFactor() * math.Pow(speedKn, 3)
}

// StoredKWh returns the energy currently held by the boat battery.
func (b *Boat) StoredKWh() float64 {
	return b.SoC * b.BatteryKWh
}

// Discharge removes energy from the boat battery. The SoC never drops below
// zero; the energy actually removed is returned.
func (b *Boat) Discharge(energyKWh float64) float64 {
	if energyKWh <= 0 {
		return 0
	}
	avail := b.SoC * b.BatteryKWh
	if energyKWh > avail {
		energyKWh = avail
	}
	b.SoC -= energyKWh / b.BatteryKWh
	if b.SoC < 0 {
		b.SoC = 0
	}
	return energyKWh
}

// Charge adds energy to the boat battery. The SoC never exceeds one; the
// energy actually stored is returned.
func (b *Boat) Charge(energyKWh float64) float64 {
	if energyKWh <= 0 {
		return 0
	}
	headroom := (1 - b.SoC) * b.BatteryKWh
	if energyKWh > headroom {
		energyKWh = headroom
	}
	b.SoC += energyKWh / b.BatteryKWh
	if b.SoC > 1 {
		b.SoC = 1
	}
	return energyKWh
}
