package schedule

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/solver"
	infralogger "github.com/kplatou/harborwatt/infra/logger"
	infrasolver "github.com/kplatou/harborwatt/infra/solver"
)

// testDate is a Wednesday, so both daily trip slots exist.
var testDate = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

func testBoat(name string, batteryKWh float64) *model.Boat {
	// k-factor 0.1: a 10 kn trip hour costs 100 kWh
	return &model.Boat{
		Name:          name,
		MotorPowerKW:  100,
		CruiseSpeedKn: 10,
		BatteryKWh:    batteryKWh,
		MassKg:        4200,
		LengthM:       12,
	}
}

func testCharger(name string, ratedKW float64) *model.Charger {
	return &model.Charger{Name: name, RatedPowerKW: ratedKW, Efficiency: 0.95}
}

func tripAtSpeed(name string, speedKn float64, d time.Duration) *model.Trip {
	dep := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	return &model.Trip{Name: name, Waypoints: []model.Waypoint{
		{Time: dep, SpeedKn: speedKn},
		{Time: dep.Add(d), SpeedKn: 0},
	}}
}

// hourlyForecasts marks every vessel available with no renewable output;
// tests adjust individual entries afterwards.
func hourlyForecasts(port *model.Port, n int) []forecast.EnergyForecast {
	fcs := make([]forecast.EnergyForecast, n)
	for i := range fcs {
		avail := make(map[string]bool, len(port.Boats))
		for _, b := range port.Boats {
			avail[b.Name] = true
		}
		fcs[i] = forecast.EnergyForecast{
			Time:      testDate.Add(time.Duration(i) * time.Hour),
			Available: avail,
		}
	}
	return fcs
}

func newTestBuilder(t *testing.T, v Variant, port *model.Port) Builder {
	t.Helper()
	b, err := New(v, Config{
		Port:   port,
		Step:   time.Hour,
		Solver: infrasolver.NewSimplex(),
		Budget: 5 * time.Second,
		Log:    infralogger.NopLogger{},
	})
	if err != nil {
		t.Fatalf("New(%s): %v", v, err)
	}
	return b
}

func vesselEnergyBetween(s *Schedule, vessel string, from, to int) float64 {
	var total float64
	for i := from; i < to && i < s.Steps; i++ {
		total += s.VesselKWh[vessel][i]
	}
	return total
}

func TestReliabilityFirstMeetsDeadline(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, time.Hour)}, // 100 kWh before 09:00
	}

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}
	if !s.Status.Usable() {
		t.Fatalf("unusable status %s", s.Status)
	}
	if len(s.Shortfall) != 0 {
		t.Fatalf("unexpected shortfall %v", s.Shortfall)
	}
	if got := vesselEnergyBetween(s, "ferry", 0, 9); got < 100-1e-4 {
		t.Errorf("energy before departure = %.3f kWh, want >= 100", got)
	}
	for i := 0; i < s.Steps; i++ {
		if p := s.ChargerKW["north"][i]; p < 0 || p > 22+1e-6 {
			t.Errorf("charger power at step %d = %v outside [0,22]", i, p)
		}
		if g := s.GridKW[i]; g < 0 || g > 40+1e-6 {
			t.Errorf("grid import at step %d = %v outside [0,40]", i, g)
		}
	}
}

func TestEnergyConservationEveryTimestep(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200), testBoat("tug", 150)},
		Chargers:          []*model.Charger{testCharger("north", 22), testCharger("south", 22)},
	}
	// ferry needs 100 kWh before 09:00, tug 51.2 kWh before 14:00
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, time.Hour)},
		"tug":   {nil, tripAtSpeed("r2", 8, time.Hour)},
	}

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}

	dtH := s.Step.Hours()
	for i := 0; i < s.Steps; i++ {
		var vessels float64
		for _, boat := range port.Boats {
			vessels += s.VesselKWh[boat.Name][i]
		}
		chargers := s.TotalChargerKW(i) * dtH
		if math.Abs(chargers-vessels) > 1e-6 {
			t.Errorf("step %d: charger energy %.6f != vessel energy %.6f", i, chargers, vessels)
		}
		if g := s.GridKW[i]; g > 40+1e-6 {
			t.Errorf("step %d: grid import %v above contracted 40", i, g)
		}
	}
}

func TestUnavailableVesselGetsNoEnergy(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, 30 * time.Minute)}, // 50 kWh before 09:00
	}
	fcs := hourlyForecasts(port, 24)
	// ferry sails hours 9 and 10; the fleet is one vessel, so chargers
	// must idle then too
	fcs[9].Available["ferry"] = false
	fcs[10].Available["ferry"] = false

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, fcs, asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}
	for _, i := range []int{9, 10} {
		if e := s.VesselKWh["ferry"][i]; e != 0 {
			t.Errorf("vessel energy at sailing step %d = %v, want 0", i, e)
		}
		if p := s.ChargerKW["north"][i]; p != 0 {
			t.Errorf("charger power with empty port at step %d = %v, want 0", i, p)
		}
	}
}

func TestShortfallQuantifiedPerVessel(t *testing.T) {
	// 500 kWh needed before 09:00 but one 22 kW charger can deliver at
	// most 198 kWh in nine hours
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 600)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, 5 * time.Hour)},
	}

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("soft deadlines must not produce fallback, status %s", s.Status)
	}
	sf, ok := s.Shortfall["ferry"]
	if !ok {
		t.Fatalf("expected a reported shortfall, got %v", s.Shortfall)
	}
	if math.Abs(sf-302) > 1e-3 {
		t.Errorf("shortfall = %.4f kWh, want 302", sf)
	}
	if math.Abs(s.Summary.UnmetKWh-sf) > 1e-9 {
		t.Errorf("summary unmet %.4f != shortfall %.4f", s.Summary.UnmetKWh, sf)
	}
	if got := vesselEnergyBetween(s, "ferry", 0, 9); math.Abs(got-198) > 1e-3 {
		t.Errorf("pre-departure delivery = %.4f kWh, want the full 198", got)
	}
}

func TestHardDeadlineInfeasibilityFallsBack(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 600)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, 5 * time.Hour)}, // 500 kWh, undeliverable
	}

	b := newTestBuilder(t, VariantThroughput, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if !s.Fallback {
		t.Fatalf("expected fallback for an infeasible model, status %s", s.Status)
	}
	if s.Status != solver.StatusInfeasible {
		t.Errorf("status = %s, want infeasible", s.Status)
	}
	series := s.ChargerKW["north"]
	if len(series) != 24 {
		t.Fatalf("fallback must span the horizon, got %d steps", len(series))
	}
	for i, p := range series {
		if math.Abs(p-22) > 1e-9 {
			t.Errorf("fallback power at step %d = %v, want 22", i, p)
		}
	}
}

type stubSolver struct {
	res solver.Result
	err error
}

func (s stubSolver) Solve(context.Context, *solver.Model, time.Duration) (solver.Result, error) {
	return s.res, s.err
}

func TestFallbackOnSolverFailure(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22), testCharger("south", 22), testCharger("west", 22)},
	}
	b, err := New(VariantReliabilityFirst, Config{
		Port:   port,
		Step:   time.Hour,
		Solver: stubSolver{err: errors.New("backend exploded")},
		Log:    infralogger.NopLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), nil)
	if err != nil {
		t.Fatalf("solver failure must not surface as an error: %v", err)
	}
	if !s.Fallback {
		t.Fatal("expected a fallback schedule")
	}
	if s.Status != solver.StatusError {
		t.Errorf("status = %s, want error", s.Status)
	}
	if s.Steps != 24 {
		t.Fatalf("fallback must cover all 24 steps, got %d", s.Steps)
	}
	// contracted 40 kW split across three chargers, below each rating
	for name, series := range s.ChargerKW {
		if len(series) != 24 {
			t.Fatalf("charger %s series has %d steps, want 24", name, len(series))
		}
		for i, p := range series {
			if math.Abs(p-40.0/3) > 1e-9 {
				t.Errorf("charger %s step %d = %v, want even share %.4f", name, i, p, 40.0/3)
			}
		}
	}
	for i := 0; i < s.Steps; i++ {
		if total := s.TotalChargerKW(i); total > 40+1e-9 {
			t.Errorf("fallback total %v above contracted power at step %d", total, i)
		}
	}
}

func TestFallbackOnUnusableStatus(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	b, err := New(VariantReliabilityFirst, Config{
		Port:   port,
		Step:   time.Hour,
		Solver: stubSolver{res: solver.Result{Status: solver.StatusInfeasible}},
		Log:    infralogger.NopLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 6), nil)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if !s.Fallback || s.Status != solver.StatusInfeasible {
		t.Fatalf("got fallback=%v status=%s, want fallback with infeasible status", s.Fallback, s.Status)
	}
	if len(s.ChargerKW["north"]) != 6 {
		t.Fatalf("fallback series has %d steps, want 6", len(s.ChargerKW["north"]))
	}
}

func TestCostVariantPrefersCheapWindow(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Tariff: &model.Tariff{
			DefaultEURPerKWh: 0.30,
			Periods: []model.TariffPeriod{
				{FromHour: 0, ToHour: 6, EURPerKWh: 0.05},
			},
		},
		Boats:    []*model.Boat{testBoat("ferry", 50)}, // delivery floor 100 kWh
		Chargers: []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 6, time.Hour)}, // 21.6 kWh before 09:00
	}

	b := newTestBuilder(t, VariantCost, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}
	if math.Abs(s.Summary.EnergyKWh-100) > 1e-3 {
		t.Errorf("delivered energy = %.4f kWh, want the 100 kWh floor", s.Summary.EnergyKWh)
	}
	// six cheap hours at 22 kW fit the whole floor
	if got := vesselEnergyBetween(s, "ferry", 0, 6); got < 100-1e-3 {
		t.Errorf("cheap-window delivery = %.4f kWh, want ~100", got)
	}
	if s.Summary.CostEUR > 5.5 {
		t.Errorf("cost = %.2f EUR, want about 5 (all cheap hours)", s.Summary.CostEUR)
	}
}

func TestReliabilityFirstFavorsUrgentVessel(t *testing.T) {
	// one charger shared by a vessel departing at 09:00 and one with no
	// trips; inside the urgency window the departing vessel must win the
	// whole hourly budget
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200), testBoat("tug", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {tripAtSpeed("r1", 10, time.Hour)}, // 100 kWh before 09:00
	}

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, hourlyForecasts(port, 24), asg)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}
	if len(s.Shortfall) != 0 {
		t.Fatalf("unexpected shortfall %v", s.Shortfall)
	}
	// hours 4..8 are within five hours of the 09:00 departure
	ferry := vesselEnergyBetween(s, "ferry", 4, 9)
	tug := vesselEnergyBetween(s, "tug", 4, 9)
	if ferry < 110-1e-3 {
		t.Errorf("urgent-window energy for ferry = %.4f kWh, want the full 110", ferry)
	}
	if tug > 1e-3 {
		t.Errorf("tug received %.4f kWh inside the ferry's urgency window, want 0", tug)
	}
}

func TestRenewableOutputOffsetsGridImport(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	fcs := hourlyForecasts(port, 24)
	for i := 10; i < 16; i++ {
		fcs[i].TotalPVKW = 30
	}

	b := newTestBuilder(t, VariantReliabilityFirst, port)
	s, err := b.BuildAndSolve(context.Background(), testDate, fcs, nil)
	if err != nil {
		t.Fatalf("BuildAndSolve: %v", err)
	}
	if s.Fallback {
		t.Fatalf("expected a solved schedule, got fallback (status %s)", s.Status)
	}
	// nothing bounds appetite here, so the charger runs flat out and the
	// grid covers only what the sun does not
	if p := s.ChargerKW["north"][12]; math.Abs(p-22) > 1e-6 {
		t.Errorf("charger power at noon = %v, want 22", p)
	}
	if g := s.GridKW[12]; g > 1e-6 {
		t.Errorf("grid import at noon = %v, want 0 with 30 kW of sun", g)
	}
	if g := s.GridKW[2]; math.Abs(g-22) > 1e-6 {
		t.Errorf("grid import at night = %v, want 22", g)
	}
}

func TestDeparturesBeforeHorizonDropped(t *testing.T) {
	port := &model.Port{
		Name:              "harbor",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{testBoat("ferry", 200)},
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	asg := map[string][]*model.Trip{
		"ferry": {
			tripAtSpeed("r1", 10, time.Hour), // departed 09:00, before the horizon
			tripAtSpeed("r2", 8, time.Hour),  // departs 14:00
		},
	}

	start := testDate.Add(11 * time.Hour)
	ds := buildDeadlines(port, testDate, start, asg)
	got := ds["ferry"]
	if len(got) != 1 {
		t.Fatalf("expected one remaining deadline, got %v", got)
	}
	if got[0].Slot != 1 {
		t.Errorf("slot = %d, want 1", got[0].Slot)
	}
	if math.Abs(got[0].CumKWh-51.2) > 1e-9 {
		t.Errorf("cumulative requirement = %v, want 51.2 (first trip excluded)", got[0].CumKWh)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	port := &model.Port{ContractedPowerKW: 40}
	valid := Config{Port: port, Step: time.Hour, Solver: stubSolver{}, Log: infralogger.NopLogger{}}

	cases := []struct {
		name    string
		variant Variant
		mutate  func(*Config)
	}{
		{"nil port", VariantReliabilityFirst, func(c *Config) { c.Port = nil }},
		{"nil solver", VariantReliabilityFirst, func(c *Config) { c.Solver = nil }},
		{"nil logger", VariantReliabilityFirst, func(c *Config) { c.Log = nil }},
		{"zero step", VariantReliabilityFirst, func(c *Config) { c.Step = 0 }},
		{"unknown variant", Variant("banana"), func(*Config) {}},
	}
	for _, c := range cases {
		cfg := valid
		c.mutate(&cfg)
		if _, err := New(c.variant, cfg); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}

	if _, err := New(VariantReliabilityFirst, valid); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant(""); err != nil || v != VariantReliabilityFirst {
		t.Errorf("empty string should select the default, got (%s, %v)", v, err)
	}
	if v, err := ParseVariant("cost"); err != nil || v != VariantCost {
		t.Errorf("ParseVariant(cost) = (%s, %v)", v, err)
	}
	if _, err := ParseVariant("banana"); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}

func TestEmptyHorizonIsAnError(t *testing.T) {
	port := &model.Port{
		ContractedPowerKW: 40,
		Chargers:          []*model.Charger{testCharger("north", 22)},
	}
	b := newTestBuilder(t, VariantReliabilityFirst, port)
	if _, err := b.BuildAndSolve(context.Background(), testDate, nil, nil); err == nil {
		t.Fatal("expected an error for an empty forecast horizon")
	}
}
