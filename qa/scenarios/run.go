package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/kplatou/harborwatt/core/events"
	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/sim"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/core/weather"
	"github.com/kplatou/harborwatt/infra/logger"
	infsolver "github.com/kplatou/harborwatt/infra/solver"
	infstore "github.com/kplatou/harborwatt/infra/store"
	infweather "github.com/kplatou/harborwatt/infra/weather"
	"github.com/kplatou/harborwatt/internal/eventbus"
)

// fixedYield decouples PV output from sun position so scenarios can state
// plant output directly.
type fixedYield struct{ kw float64 }

func (f fixedYield) ACPowerKW(weather.Sample, model.PVArray, time.Time, float64, float64) float64 {
	return f.kw
}

// RunScenario simulates the scenario over its configured window and checks
// the expectations against the event stream and the measurement store.
func RunScenario(t *testing.T, sc *Scenario) {
	day, err := sc.Day()
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	port, err := sc.Port()
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	routes := make([]*model.Trip, len(sc.Routes))
	for i, r := range sc.Routes {
		routes[i] = r.ToModel()
	}
	log := logger.NopLogger{}
	mgr, err := trips.NewManager(routes, sc.Seed, log)
	if err != nil {
		t.Fatalf("trips: %v", err)
	}

	st := infstore.NewMemoryStore()
	provider := infweather.NewClearSky()
	yield := fixedYield{sc.PVKW}
	fc := forecast.New(port, provider, yield, st, time.Hour, log)

	policy := sim.PolicyPowerLimited
	if sc.Policy != "" {
		if policy, err = sim.ParsePolicy(sc.Policy); err != nil {
			t.Fatalf("policy: %v", err)
		}
	}
	var builder schedule.Builder
	if sc.Variant != "" {
		variant, verr := schedule.ParseVariant(sc.Variant)
		if verr != nil {
			t.Fatalf("variant: %v", verr)
		}
		builder, verr = schedule.New(variant, schedule.Config{
			Port:     port,
			Step:     time.Hour,
			Solver:   infsolver.NewSimplex(),
			Budget:   5 * time.Second,
			Tunables: schedule.DefaultTunables(),
			Log:      log,
		})
		if verr != nil {
			t.Fatalf("builder: %v", verr)
		}
		policy = sim.PolicySchedule
	}

	bus := eventbus.New[any]()
	sub := bus.SubscribeBuffered(256)

	eng, err := sim.New(sim.Options{
		Port:     port,
		Trips:    mgr,
		Forecast: fc,
		Builder:  builder,
		Weather:  provider,
		Yield:    yield,
		Store:    st,
		Bus:      bus,
		Log:      log,
		Policy:   policy,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	hours := sc.Hours
	if hours == 0 {
		hours = 24
	}
	if err := eng.Run(context.Background(), day, day.Add(time.Duration(hours)*time.Hour)); err != nil {
		t.Fatalf("run: %v", err)
	}
	bus.Close()

	counts := make(map[events.TripAction]int)
	for e := range sub {
		if te, ok := e.(events.TripEvent); ok {
			counts[te.Action]++
		}
	}
	checkCount(t, sc, "started", counts[events.TripStarted], sc.Expected.Started)
	checkCount(t, sc, "completed", counts[events.TripCompleted], sc.Expected.Completed)
	checkCount(t, sc, "delayed", counts[events.TripDelayed], sc.Expected.Delayed)
	checkCount(t, sc, "cancelled", counts[events.TripCancelled], sc.Expected.Cancelled)

	if floor := sc.Expected.FinalSoCAtLeast; floor != nil {
		for _, b := range port.Boats {
			if b.SoC < *floor {
				t.Errorf("scenario %s: vessel %s finished at SoC %.3f, want >= %.3f",
					sc.Name, b.Name, b.SoC, *floor)
			}
		}
	}
	if limit := sc.Expected.MaxImportKW; limit != nil {
		if peak := peakImport(t, st); peak > *limit {
			t.Errorf("scenario %s: peak grid import %.2f kW exceeds %.2f kW",
				sc.Name, peak, *limit)
		}
	}
}

func checkCount(t *testing.T, sc *Scenario, action string, got, want int) {
	if got != want {
		t.Errorf("scenario %s: %d trips %s, want %d", sc.Name, got, action, want)
	}
}

func peakImport(t *testing.T, st store.Store) float64 {
	recs, err := st.Query(context.Background(), store.Query{
		Table:  store.TableMeasurements,
		Source: store.SourcePort,
		Metric: store.MetricGridImportKW,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var peak float64
	for _, r := range recs {
		v, err := store.ParseValue(r.Value)
		if err != nil {
			t.Fatalf("parse %q: %v", r.Value, err)
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
