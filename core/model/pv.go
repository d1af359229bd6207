package model

import "fmt"

// PVArray represents a photovoltaic installation at the port.
type PVArray struct {
	Name       string
	PeakKW     float64 // rated DC capacity
	TiltDeg    float64 // panel tilt from horizontal
	AzimuthDeg float64 // panel azimuth, 180 = south
	OutputKW   float64 // current AC output, recomputed every timestep
}

// Validate checks that the array configuration is sound.
func (p *PVArray) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pv array name must not be empty")
	}
	if p.PeakKW <= 0 {
		return fmt.Errorf("pv array %s: peak capacity must be positive", p.Name)
	}
	if p.TiltDeg < 0 || p.TiltDeg > 90 {
		return fmt.Errorf("pv array %s: tilt %.1f outside [0,90]", p.Name, p.TiltDeg)
	}
	return nil
}
