package model

import "fmt"

// Port aggregates every energy asset at the site. Absent subsystems are
// represented by empty collections so sums over them naturally yield zero.
type Port struct {
	Name              string
	Lat               float64
	Lon               float64
	ContractedPowerKW float64 // contractual cap on grid import
	Tariff            *Tariff // optional grid price table
	Boats             []*Boat
	Chargers          []*Charger
	Batteries         []*Battery
	PVArrays          []*PVArray
}

// Validate checks the port and every contained asset.
func (p *Port) Validate() error {
	if p.ContractedPowerKW <= 0 {
		return fmt.Errorf("contracted power must be positive")
	}
	names := make(map[string]bool)
	for _, b := range p.Boats {
		if err := b.Validate(); err != nil {
			return err
		}
		if names["boat/"+b.Name] {
			return fmt.Errorf("duplicate boat name %s", b.Name)
		}
		names["boat/"+b.Name] = true
	}
	for _, c := range p.Chargers {
		if err := c.Validate(); err != nil {
			return err
		}
		if names["charger/"+c.Name] {
			return fmt.Errorf("duplicate charger name %s", c.Name)
		}
		names["charger/"+c.Name] = true
	}
	for _, b := range p.Batteries {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	for _, pv := range p.PVArrays {
		if err := pv.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PVOutputKW returns the summed current output of all PV arrays.
func (p *Port) PVOutputKW() float64 {
	var total float64
	for _, pv := range p.PVArrays {
		total += pv.OutputKW
	}
	return total
}

// ChargerDrawKW returns the summed current power draw of all chargers.
func (p *Port) ChargerDrawKW() float64 {
	var total float64
	for _, c := range p.Chargers {
		total += c.PowerKW
	}
	return total
}

// BoatByName returns the named boat or nil.
func (p *Port) BoatByName(name string) *Boat {
	for _, b := range p.Boats {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// ChargerByName returns the named charger or nil.
func (p *Port) ChargerByName(name string) *Charger {
	for _, c := range p.Chargers {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FleetCapacityKWh returns the aggregate battery capacity of all boats.
func (p *Port) FleetCapacityKWh() float64 {
	var total float64
	for _, b := range p.Boats {
		total += b.BatteryKWh
	}
	return total
}
