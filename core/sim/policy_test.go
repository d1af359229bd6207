package sim

import (
	"context"
	"testing"
	"time"

	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/trips"
)

func twoBoatPort(soc1, soc2 float64) *model.Port {
	return &model.Port{
		Name:              "test",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{vessel("alpha", 200, soc1), vessel("bravo", 200, soc2)},
		Chargers:          []*model.Charger{shoreCharger("shore-1", 0.95), shoreCharger("shore-2", 0.95)},
	}
}

func TestPowerLimitedScalesDownUnderCap(t *testing.T) {
	port := twoBoatPort(0.2, 0.2)
	f := newFixture(t, port, route(8, time.Hour), nil)

	if err := f.engine.Step(context.Background(), sunday); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// both chargers want 22 kW but only 40 kW of grid is contracted,
	// so each is scaled to 20
	for _, c := range port.Chargers {
		if !approx(c.PowerKW, 20) {
			t.Fatalf("%s power = %.2f, want 20", c.Name, c.PowerKW)
		}
	}
	if total := port.ChargerDrawKW(); total > 40+1e-9 {
		t.Fatalf("combined draw %.2f exceeds the contracted 40 kW", total)
	}
}

func TestPowerLimitedCountsSolarAboveCap(t *testing.T) {
	port := twoBoatPort(0.2, 0.2)
	port.PVArrays = []*model.PVArray{{Name: "roof", PeakKW: 40, TiltDeg: 30, AzimuthDeg: 180}}
	f := newFixture(t, port, route(8, time.Hour), func(o *Options) {
		o.Yield = stubYield{kw: 30}
	})

	if err := f.engine.Step(context.Background(), sunday.Add(12*time.Hour)); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// 30 kW of solar raises the usable budget to 70, so no scaling
	for _, c := range port.Chargers {
		if !approx(c.PowerKW, 22) {
			t.Fatalf("%s power = %.2f, want rated 22", c.Name, c.PowerKW)
		}
	}
}

func TestUnlimitedPolicyRunsAtRated(t *testing.T) {
	port := twoBoatPort(0.2, 0.2)
	f := newFixture(t, port, route(8, time.Hour), func(o *Options) {
		o.Policy = PolicyUnlimited
	})

	if err := f.engine.Step(context.Background(), sunday); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if total := port.ChargerDrawKW(); !approx(total, 44) {
		t.Fatalf("combined draw = %.2f, want 44 regardless of the cap", total)
	}
}

func TestFCFSQueuePutsDelayedVesselsFirst(t *testing.T) {
	port := &model.Port{
		Name:              "test",
		ContractedPowerKW: 40,
		Boats:             []*model.Boat{vessel("alpha", 200, 0.5), vessel("bravo", 200, 0.5), vessel("charlie", 200, 0.5)},
		Chargers:          []*model.Charger{shoreCharger("shore-1", 0.95)},
	}
	f := newFixture(t, port, route(8, time.Hour), nil)

	f.engine.states["charlie"].run = &tripRun{trip: route(8, time.Hour), delayed: true}

	var got []string
	for _, b := range f.engine.fcfsQueue() {
		got = append(got, b.Name)
	}
	want := []string{"charlie", "alpha", "bravo"}
	if len(got) != len(want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue = %v, want %v", got, want)
		}
	}
}

func TestNextVesselPrefersImminentDeparture(t *testing.T) {
	port := twoBoatPort(0.5, 0.1)
	f := newFixture(t, port, route(8, time.Hour), nil)
	e := f.engine
	e.day = saturday
	e.asg = trips.Assignments{"alpha": {route(8, time.Hour)}, "bravo": nil}

	// alpha departs at 09:00, bravo has no trip left: urgency beats
	// the lower state of charge
	if b := e.nextVessel(saturday.Add(8 * time.Hour)); b == nil || b.Name != "alpha" {
		t.Fatalf("picked %v, want alpha", b)
	}

	// with no departures pending the emptiest battery goes first
	e.asg = trips.Assignments{}
	if b := e.nextVessel(saturday.Add(8 * time.Hour)); b == nil || b.Name != "bravo" {
		t.Fatalf("picked %v, want bravo", b)
	}
}

func TestSchedulePolicyReleasesChargerWhenPlanIdles(t *testing.T) {
	ferry := vessel("ferry", 1000, 0.2)
	ch := shoreCharger("shore-1", 1.0)
	port := &model.Port{Name: "test", ContractedPowerKW: 40, Boats: []*model.Boat{ferry}, Chargers: []*model.Charger{ch}}
	s := flatSchedule(sunday, 24, "shore-1", 22)
	for i := 2; i < 24; i++ {
		s.ChargerKW["shore-1"][i] = 0
	}
	b := &stubBuilder{schedules: []*schedule.Schedule{s}}
	f := newFixture(t, port, route(8, time.Hour), func(o *Options) {
		o.Builder = b
		o.Policy = PolicySchedule
	})

	err := f.engine.Run(context.Background(), sunday, sunday.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if ch.Boat != nil || ch.PowerKW != 0 {
		t.Fatalf("charger still active after the plan went idle: %.1f kW", ch.PowerKW)
	}
	if ferry.State != model.BoatIdle {
		t.Fatalf("ferry state = %s, want idle", ferry.State)
	}
	if !approx(ferry.StoredKWh(), 200+2*22) {
		t.Fatalf("stored = %.2f kWh, want %.2f", ferry.StoredKWh(), 200+2*22.0)
	}
}

func TestFullVesselIsReleased(t *testing.T) {
	ferry := vessel("ferry", 100, 0.9)
	ch := shoreCharger("shore-1", 1.0)
	port := &model.Port{Name: "test", ContractedPowerKW: 40, Boats: []*model.Boat{ferry}, Chargers: []*model.Charger{ch}}
	f := newFixture(t, port, route(8, time.Hour), nil)

	if err := f.engine.Step(context.Background(), sunday); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if ferry.SoC != 1.0 {
		t.Fatalf("ferry soc = %.2f, want clamped at 1.0", ferry.SoC)
	}
	if ch.Boat != nil || ferry.State != model.BoatIdle {
		t.Fatalf("full vessel still connected")
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicySchedule, false},
		{"schedule", PolicySchedule, false},
		{"power-limited", PolicyPowerLimited, false},
		{"unlimited", PolicyUnlimited, false},
		{"greedy", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr != (err != nil) {
			t.Fatalf("ParsePolicy(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
