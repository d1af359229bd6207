package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kplatou/harborwatt/config"
	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/infra/logger"
	infrasolar "github.com/kplatou/harborwatt/infra/solar"
	infrasolver "github.com/kplatou/harborwatt/infra/solver"
)

// Plan runs one day-ahead optimization for the given date without starting
// a simulation. It draws the date's trips, forecasts the day with the
// configured weather provider and solves the configured variant.
func Plan(ctx context.Context, cfg *config.Config, date time.Time) (*schedule.Schedule, error) {
	cfg.Logging.Apply()

	port, err := cfg.Port.ToModel()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	routes, err := loadRoutes(cfg.Routes.Path)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	mgr, err := trips.NewManager(routes, cfg.Simulation.Seed, logger.New("trips"))
	if err != nil {
		return nil, fmt.Errorf("trips: %w", err)
	}

	w := buildWeather(cfg.Weather)
	yield := infrasolar.NewPVModel()
	fc := forecast.New(port, w, yield, store.NopStore{}, cfg.Simulation.Step(), logger.New("forecast"))

	variant, err := schedule.ParseVariant(cfg.Simulation.Variant)
	if err != nil {
		return nil, err
	}
	builder, err := schedule.New(variant, schedule.Config{
		Port:     port,
		Step:     cfg.Simulation.Step(),
		Solver:   infrasolver.NewSimplex(),
		Budget:   cfg.Simulation.Budget(),
		Tunables: cfg.Simulation.Tunables(),
		Log:      logger.New("schedule"),
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	asg := mgr.AssignAll(port.Boats, date)
	fcs, err := fc.DayAhead(ctx, date, asg)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return builder.BuildAndSolve(ctx, date, fcs, asg)
}
