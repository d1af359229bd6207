package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kplatou/harborwatt/core/model"
)

// PortConfig describes the site: grid connection, fleet and local devices.
type PortConfig struct {
	Name              string          `json:"name"`
	Lat               float64         `json:"lat"`
	Lon               float64         `json:"lon"`
	ContractedPowerKW float64         `json:"contracted_power_kw"`
	Tariff            *TariffConfig   `json:"tariff"`
	Boats             []BoatConfig    `json:"boats"`
	Chargers          []ChargerConfig `json:"chargers"`
	Batteries         []BatteryConfig `json:"batteries"`
	PVArrays          []PVConfig      `json:"pv_arrays"`
}

type BoatConfig struct {
	Name          string  `json:"name"`
	MotorPowerKW  float64 `json:"motor_power_kw"`
	MassKg        float64 `json:"mass_kg"`
	LengthM       float64 `json:"length_m"`
	BatteryKWh    float64 `json:"battery_kwh"`
	CruiseSpeedKn float64 `json:"cruise_speed_kn"`
	InitialSoC    float64 `json:"initial_soc"`
}

type ChargerConfig struct {
	Name         string  `json:"name"`
	RatedPowerKW float64 `json:"rated_power_kw"`
	Efficiency   float64 `json:"efficiency"`
}

type BatteryConfig struct {
	Name           string  `json:"name"`
	CapacityKWh    float64 `json:"capacity_kwh"`
	MaxChargeKW    float64 `json:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw"`
	Efficiency     float64 `json:"efficiency"`
	SoCMin         float64 `json:"soc_min"`
	SoCMax         float64 `json:"soc_max"`
	InitialSoC     float64 `json:"initial_soc"`
}

type PVConfig struct {
	Name       string  `json:"name"`
	PeakKW     float64 `json:"peak_kw"`
	TiltDeg    float64 `json:"tilt_deg"`
	AzimuthDeg float64 `json:"azimuth_deg"`
}

// TariffConfig mirrors the time-of-use price table. Weekdays are spelled
// out ("monday") or abbreviated ("mon"); an empty list covers every day.
type TariffConfig struct {
	DefaultEURPerKWh float64              `json:"default_eur_per_kwh"`
	Periods          []TariffPeriodConfig `json:"periods"`
}

type TariffPeriodConfig struct {
	Weekdays  []string `json:"weekdays"`
	FromHour  int      `json:"from_hour"`
	ToHour    int      `json:"to_hour"`
	EURPerKWh float64  `json:"eur_per_kwh"`
}

// SetDefaults fills device parameters a site file commonly omits.
func (c *PortConfig) SetDefaults() {
	for i := range c.Chargers {
		if c.Chargers[i].Efficiency == 0 {
			c.Chargers[i].Efficiency = 0.95
		}
	}
	for i := range c.Batteries {
		b := &c.Batteries[i]
		if b.Efficiency == 0 {
			b.Efficiency = 0.92
		}
		if b.SoCMax == 0 {
			b.SoCMax = 1
		}
		if b.InitialSoC == 0 {
			b.InitialSoC = b.SoCMin
		}
	}
}

// ToModel converts the section into a validated runtime port. All physical
// parameter errors surface here, before a simulation starts.
func (c PortConfig) ToModel() (*model.Port, error) {
	p := &model.Port{
		Name:              c.Name,
		Lat:               c.Lat,
		Lon:               c.Lon,
		ContractedPowerKW: c.ContractedPowerKW,
	}
	for _, b := range c.Boats {
		p.Boats = append(p.Boats, &model.Boat{
			Name:          b.Name,
			MotorPowerKW:  b.MotorPowerKW,
			MassKg:        b.MassKg,
			LengthM:       b.LengthM,
			BatteryKWh:    b.BatteryKWh,
			CruiseSpeedKn: b.CruiseSpeedKn,
			SoC:           b.InitialSoC,
		})
	}
	for _, ch := range c.Chargers {
		p.Chargers = append(p.Chargers, &model.Charger{
			Name:         ch.Name,
			RatedPowerKW: ch.RatedPowerKW,
			Efficiency:   ch.Efficiency,
		})
	}
	for _, b := range c.Batteries {
		p.Batteries = append(p.Batteries, &model.Battery{
			Name:           b.Name,
			CapacityKWh:    b.CapacityKWh,
			MaxChargeKW:    b.MaxChargeKW,
			MaxDischargeKW: b.MaxDischargeKW,
			Efficiency:     b.Efficiency,
			SoCMin:         b.SoCMin,
			SoCMax:         b.SoCMax,
			SoC:            b.InitialSoC,
		})
	}
	for _, pv := range c.PVArrays {
		p.PVArrays = append(p.PVArrays, &model.PVArray{
			Name:       pv.Name,
			PeakKW:     pv.PeakKW,
			TiltDeg:    pv.TiltDeg,
			AzimuthDeg: pv.AzimuthDeg,
		})
	}
	if c.Tariff != nil {
		t, err := c.Tariff.toModel()
		if err != nil {
			return nil, err
		}
		p.Tariff = t
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c TariffConfig) toModel() (*model.Tariff, error) {
	t := &model.Tariff{DefaultEURPerKWh: c.DefaultEURPerKWh}
	for _, p := range c.Periods {
		if p.FromHour < 0 || p.FromHour > 23 || p.ToHour < 0 || p.ToHour > 24 {
			return nil, fmt.Errorf("tariff period hours [%d,%d) out of range", p.FromHour, p.ToHour)
		}
		period := model.TariffPeriod{
			FromHour:  p.FromHour,
			ToHour:    p.ToHour,
			EURPerKWh: p.EURPerKWh,
		}
		for _, name := range p.Weekdays {
			d, err := parseWeekday(name)
			if err != nil {
				return nil, err
			}
			period.Weekdays = append(period.Weekdays, d)
		}
		t.Periods = append(t.Periods, period)
	}
	return t, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
}
