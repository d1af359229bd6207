package test

import (
	"context"
	"testing"
	"time"

	"github.com/kplatou/harborwatt/core/events"
	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/sim"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/infra/logger"
	infrasolar "github.com/kplatou/harborwatt/infra/solar"
	infstore "github.com/kplatou/harborwatt/infra/store"
	infweather "github.com/kplatou/harborwatt/infra/weather"
	"github.com/kplatou/harborwatt/internal/eventbus"
)

// integrationDay is a Friday, so the trip plan draws two weekday departures.
var integrationDay = time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

// runWeekday simulates integrationDay for a single-ferry port and returns
// the port, the measurement store and the trip events emitted during the
// run. The ferry starts full and the shore charger keeps up between trips,
// so both departures start and complete.
func runWeekday(t *testing.T) (*model.Port, store.Store, []events.TripEvent) {
	t.Helper()

	port := &model.Port{
		Name:              "integration-port",
		Lat:               59.91,
		Lon:               10.75,
		ContractedPowerKW: 40,
		Boats: []*model.Boat{
			{Name: "ferry", MotorPowerKW: 100, CruiseSpeedKn: 10, BatteryKWh: 400, SoC: 1},
		},
		Chargers: []*model.Charger{
			{Name: "shore-1", RatedPowerKW: 22, Efficiency: 0.95},
		},
	}
	if err := port.Validate(); err != nil {
		t.Fatalf("port: %v", err)
	}

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	route := &model.Trip{
		Name: "harbor-loop",
		Waypoints: []model.Waypoint{
			{Time: start, SpeedKn: 8},
			{Time: start.Add(time.Hour), SpeedKn: 8},
		},
	}
	log := logger.NopLogger{}
	mgr, err := trips.NewManager([]*model.Trip{route}, 1, log)
	if err != nil {
		t.Fatalf("trips: %v", err)
	}

	st := infstore.NewMemoryStore()
	provider := infweather.NewClearSky()
	yield := infrasolar.NewPVModel()
	fc := forecast.New(port, provider, yield, st, time.Hour, log)

	bus := eventbus.New[any]()
	sub := bus.SubscribeBuffered(256)
	eng, err := sim.New(sim.Options{
		Port:     port,
		Trips:    mgr,
		Forecast: fc,
		Weather:  provider,
		Yield:    yield,
		Store:    st,
		Bus:      bus,
		Log:      log,
		Policy:   sim.PolicyPowerLimited,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if err := eng.Run(context.Background(), integrationDay, integrationDay.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("run: %v", err)
	}
	bus.Close()

	var tripEvents []events.TripEvent
	for e := range sub {
		if te, ok := e.(events.TripEvent); ok {
			tripEvents = append(tripEvents, te)
		}
	}
	return port, st, tripEvents
}
