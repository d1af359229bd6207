package model

import (
	"fmt"
	"time"
)

// ChargerState describes whether a charger is serving a boat.
type ChargerState int

const (
	ChargerIdle ChargerState = iota
	ChargerCharging
)

// String returns a human-readable representation of the charger state.
func (s ChargerState) String() string {
	if s == ChargerCharging {
		return "charging"
	}
	return "idle"
}

// Charger represents a shore charging station.
type Charger struct {
	Name         string
	RatedPowerKW float64 // maximum deliverable power in kW
	Efficiency   float64 // AC to battery conversion efficiency in (0,1]
	PowerKW      float64 // current power draw in [0, RatedPowerKW]
	State        ChargerState
	Boat         *Boat // boat currently connected, nil when idle
}

// Validate checks that the charger configuration is sound.
func (c *Charger) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("charger name must not be empty")
	}
	if c.RatedPowerKW <= 0 {
		return fmt.Errorf("charger %s: rated power must be positive", c.Name)
	}
	if c.Efficiency <= 0 || c.Efficiency > 1 {
		return fmt.Errorf("charger %s: efficiency %.3f outside (0,1]", c.Name, c.Efficiency)
	}
	return nil
}

// SetPower requests a power draw. The value is clamped to [0, RatedPowerKW]
// and the power actually applied is returned.
func (c *Charger) SetPower(kw float64) float64 {
	if kw < 0 {
		kw = 0
	}
	if kw > c.RatedPowerKW {
		kw = c.RatedPowerKW
	}
	c.PowerKW = kw
	return kw
}

// Connect attaches a boat to the charger.
func (c *Charger) Connect(b *Boat) {
	c.Boat = b
	c.State = ChargerCharging
	b.State = BoatCharging
}

// ToIdle releases the connected boat, if any, and zeroes the power draw.
func (c *Charger) ToIdle() {
	if c.Boat != nil && c.Boat.State == BoatCharging {
		c.Boat.State = BoatIdle
	}
	c.Boat = nil
	c.PowerKW = 0
	c.State = ChargerIdle
}

// DeliveredKWh returns the battery-side energy transferred over dt at the
// current power draw, accounting for conversion losses.
func (c *Charger) DeliveredKWh(dt time.Duration) float64 {
	return c.PowerKW * c.Efficiency * dt.Hours()
}
