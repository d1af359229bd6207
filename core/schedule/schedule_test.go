package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/core/store"
)

func TestScheduleIndex(t *testing.T) {
	s := &Schedule{
		Start: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Step:  time.Hour,
		Steps: 24,
	}

	cases := []struct {
		offset time.Duration
		want   int
		ok     bool
	}{
		{0, 0, true},
		{30 * time.Minute, 0, true},
		{23*time.Hour + 59*time.Minute, 23, true},
		{24 * time.Hour, 0, false},
		{-time.Minute, 0, false},
	}
	for _, c := range cases {
		got, ok := s.Index(s.Start.Add(c.offset))
		if ok != c.ok || got != c.want {
			t.Errorf("Index(start+%v) = (%d, %v), want (%d, %v)", c.offset, got, ok, c.want, c.ok)
		}
	}
}

func TestSchedulePowerLookups(t *testing.T) {
	s := &Schedule{
		Start:     time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Step:      time.Hour,
		Steps:     2,
		ChargerKW: map[string][]float64{"north": {5, 0}},
		BatteryKW: map[string][]float64{"bess": {-10, 3}},
	}

	if got := s.ChargerPowerAt("north", s.Start); got != 5 {
		t.Errorf("charger power at step 0 = %v, want 5", got)
	}
	if got := s.ChargerPowerAt("unknown", s.Start); got != 0 {
		t.Errorf("unknown charger power = %v, want 0", got)
	}
	if got := s.ChargerPowerAt("north", s.Start.Add(3*time.Hour)); got != 0 {
		t.Errorf("charger power outside horizon = %v, want 0", got)
	}
	if got := s.BatteryPowerAt("bess", s.Start); got != -10 {
		t.Errorf("battery power at step 0 = %v, want -10", got)
	}
}

func TestSetChargerPower(t *testing.T) {
	s := &Schedule{
		Steps:     4,
		Step:      time.Hour,
		ChargerKW: map[string][]float64{"north": {1, 2, 3, 4}},
	}

	s.SetChargerPower("north", 2, 22)
	want := []float64{1, 2, 22, 22}
	for i, w := range want {
		if s.ChargerKW["north"][i] != w {
			t.Fatalf("series[%d] = %v, want %v", i, s.ChargerKW["north"][i], w)
		}
	}

	s.SetChargerPower("north", -5, 7)
	for i := range want {
		if s.ChargerKW["north"][i] != 7 {
			t.Fatalf("negative from should overwrite whole series, series[%d] = %v", i, s.ChargerKW["north"][i])
		}
	}

	// unknown charger is a no-op
	s.SetChargerPower("ghost", 0, 99)
}

func TestScheduleRecords(t *testing.T) {
	start := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	s := &Schedule{
		Start:     start,
		Step:      time.Hour,
		Steps:     2,
		ChargerKW: map[string][]float64{"north": {5, 0}},
		BatteryKW: map[string][]float64{"bess": {-10, 3}},
		Status:    solver.StatusOptimal,
	}

	recs := s.Records()
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	bySource := make(map[string][]store.Record)
	for _, r := range recs {
		if r.Metric != store.MetricPowerSetpoint {
			t.Fatalf("unexpected metric %q", r.Metric)
		}
		bySource[r.Source] = append(bySource[r.Source], r)
	}
	if len(bySource["north"]) != 2 || len(bySource["bess"]) != 2 {
		t.Fatalf("expected 2 rows per device, got north=%d bess=%d", len(bySource["north"]), len(bySource["bess"]))
	}
	// battery rows keep the signed convention
	v, err := store.ParseValue(bySource["bess"][0].Value)
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	if v != -10 {
		t.Errorf("battery setpoint = %v, want -10", v)
	}
	if !bySource["bess"][0].Time.Equal(start) {
		t.Errorf("first row time = %v, want %v", bySource["bess"][0].Time, start)
	}
}

func TestTotalChargerKW(t *testing.T) {
	s := &Schedule{
		Steps:     2,
		ChargerKW: map[string][]float64{"a": {10, 1}, "b": {5, 2}},
	}
	if got := s.TotalChargerKW(0); math.Abs(got-15) > 1e-12 {
		t.Errorf("total at step 0 = %v, want 15", got)
	}
	if got := s.TotalChargerKW(1); math.Abs(got-3) > 1e-12 {
		t.Errorf("total at step 1 = %v, want 3", got)
	}
}
