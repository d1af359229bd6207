package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kplatou/harborwatt/core/model"
)

type VesselDef struct {
	Name       string  `yaml:"name"`
	MotorKW    float64 `yaml:"motor_kw"`
	CruiseKn   float64 `yaml:"cruise_kn"`
	BatteryKWh float64 `yaml:"battery_kwh"`
	SoC        float64 `yaml:"soc"`
}

func (v VesselDef) ToModel() *model.Boat {
	return &model.Boat{
		Name:          v.Name,
		MotorPowerKW:  v.MotorKW,
		CruiseSpeedKn: v.CruiseKn,
		BatteryKWh:    v.BatteryKWh,
		SoC:           v.SoC,
	}
}

type ChargerDef struct {
	Name       string  `yaml:"name"`
	RatedKW    float64 `yaml:"rated_kw"`
	Efficiency float64 `yaml:"efficiency,omitempty"`
}

func (c ChargerDef) ToModel() *model.Charger {
	eff := c.Efficiency
	if eff == 0 {
		eff = 0.95
	}
	return &model.Charger{Name: c.Name, RatedPowerKW: c.RatedKW, Efficiency: eff}
}

type BatteryDef struct {
	Name        string  `yaml:"name"`
	CapacityKWh float64 `yaml:"capacity_kwh"`
	ChargeKW    float64 `yaml:"charge_kw"`
	DischargeKW float64 `yaml:"discharge_kw"`
	SoC         float64 `yaml:"soc"`
}

func (b BatteryDef) ToModel() *model.Battery {
	return &model.Battery{
		Name:           b.Name,
		CapacityKWh:    b.CapacityKWh,
		MaxChargeKW:    b.ChargeKW,
		MaxDischargeKW: b.DischargeKW,
		Efficiency:     0.92,
		SoCMax:         1,
		SoC:            b.SoC,
	}
}

// RouteDef synthesizes a constant-speed route of the given length. Two
// waypoints are enough: speed is held from a segment's first waypoint.
type RouteDef struct {
	Name            string  `yaml:"name"`
	SpeedKn         float64 `yaml:"speed_kn"`
	DurationMinutes int     `yaml:"duration_minutes"`
}

func (r RouteDef) ToModel() *model.Trip {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(r.DurationMinutes) * time.Minute)
	return &model.Trip{
		Name: r.Name,
		Waypoints: []model.Waypoint{
			{Time: start, SpeedKn: r.SpeedKn},
			{Time: end, SpeedKn: r.SpeedKn},
		},
	}
}

type Expected struct {
	Started   int `yaml:"started"`
	Completed int `yaml:"completed"`
	Delayed   int `yaml:"delayed"`
	Cancelled int `yaml:"cancelled"`
	// FinalSoCAtLeast, when set, is checked against every vessel's SoC
	// after the run.
	FinalSoCAtLeast *float64 `yaml:"final_soc_at_least,omitempty"`
	// MaxImportKW, when set, bounds the peak grid import recorded in the
	// measurement store.
	MaxImportKW *float64 `yaml:"max_import_kw,omitempty"`
}

type Scenario struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	Date         string       `yaml:"date"`
	Hours        int          `yaml:"hours,omitempty"`
	Policy       string       `yaml:"policy,omitempty"`
	Variant      string       `yaml:"variant,omitempty"`
	Seed         int64        `yaml:"seed,omitempty"`
	ContractedKW float64      `yaml:"contracted_kw"`
	PVKW         float64      `yaml:"pv_kw,omitempty"`
	Vessels      []VesselDef  `yaml:"vessels"`
	Chargers     []ChargerDef `yaml:"chargers"`
	Battery      *BatteryDef  `yaml:"battery,omitempty"`
	Routes       []RouteDef   `yaml:"routes"`
	Expected     Expected     `yaml:"expected"`
}

// Port assembles the scenario fleet into a validated port model.
func (sc *Scenario) Port() (*model.Port, error) {
	p := &model.Port{
		Name:              sc.Name,
		Lat:               59.91,
		Lon:               10.75,
		ContractedPowerKW: sc.ContractedKW,
	}
	for _, v := range sc.Vessels {
		p.Boats = append(p.Boats, v.ToModel())
	}
	for _, c := range sc.Chargers {
		p.Chargers = append(p.Chargers, c.ToModel())
	}
	if sc.Battery != nil {
		p.Batteries = append(p.Batteries, sc.Battery.ToModel())
	}
	if sc.PVKW > 0 {
		p.PVArrays = append(p.PVArrays, &model.PVArray{
			Name: "qa-pv", PeakKW: sc.PVKW, TiltDeg: 30, AzimuthDeg: 180,
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Day parses the scenario date as a UTC midnight.
func (sc *Scenario) Day() (time.Time, error) {
	d, err := time.Parse("2006-01-02", sc.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("scenario %s: bad date: %w", sc.Name, err)
	}
	return d, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
