package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	eventlogapi "github.com/kplatou/harborwatt/api/eventlog"
	vesselsapi "github.com/kplatou/harborwatt/api/vessels"
	"github.com/kplatou/harborwatt/config"
	"github.com/kplatou/harborwatt/core/auditlog"
	"github.com/kplatou/harborwatt/core/events"
	"github.com/kplatou/harborwatt/core/factory"
	"github.com/kplatou/harborwatt/core/fleetstatus"
	"github.com/kplatou/harborwatt/core/forecast"
	"github.com/kplatou/harborwatt/core/model"
	coremon "github.com/kplatou/harborwatt/core/monitoring"
	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/sim"
	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/core/trips"
	"github.com/kplatou/harborwatt/core/weather"
	infraaudit "github.com/kplatou/harborwatt/infra/auditlog"
	"github.com/kplatou/harborwatt/infra/logger"
	"github.com/kplatou/harborwatt/infra/metrics"
	inframon "github.com/kplatou/harborwatt/infra/monitoring"
	infrasolar "github.com/kplatou/harborwatt/infra/solar"
	infrasolver "github.com/kplatou/harborwatt/infra/solver"
	infrastore "github.com/kplatou/harborwatt/infra/store"
	"github.com/kplatou/harborwatt/infra/telemetry"
	"github.com/kplatou/harborwatt/infra/tripfile"
	infraweather "github.com/kplatou/harborwatt/infra/weather"
	"github.com/kplatou/harborwatt/internal/eventbus"
)

// Service wires configuration into a runnable simulation.
type Service struct {
	Engine *sim.Engine
	Bus    *eventbus.Bus[any]

	log      logger.Logger
	st       store.Store
	port     *model.Port
	fleet    *fleetstatus.MemoryStore
	audit    auditlog.Store
	promAddr string
	apiAddr  string
	apiToken string
}

// New builds a Service from the configuration. Every configuration error
// surfaces here; once New returns, a run can only degrade, not fail setup.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	log := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

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

	st, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	w := buildWeather(cfg.Weather)
	yield := infrasolar.NewPVModel()
	fc := forecast.New(port, w, yield, st, cfg.Simulation.Step(), logger.New("forecast"))

	policy, err := sim.ParsePolicy(cfg.Simulation.Policy)
	if err != nil {
		return nil, err
	}
	mode, err := sim.ParseMode(cfg.Simulation.Mode)
	if err != nil {
		return nil, err
	}

	var builder schedule.Builder
	if policy == sim.PolicySchedule {
		variant, err := schedule.ParseVariant(cfg.Simulation.Variant)
		if err != nil {
			return nil, err
		}
		builder, err = schedule.New(variant, schedule.Config{
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
	}

	bus := eventbus.New[any]()
	engine, err := sim.New(sim.Options{
		Port:          port,
		Trips:         mgr,
		Forecast:      fc,
		Builder:       builder,
		Weather:       w,
		Yield:         yield,
		Store:         st,
		Bus:           bus,
		Log:           logger.New("sim"),
		Step:          cfg.Simulation.Step(),
		Policy:        policy,
		Mode:          mode,
		Pace:          cfg.Simulation.Pace(),
		CutoffHour:    cfg.Simulation.CutoffHour,
		CheapPriceEUR: cfg.Simulation.CheapPriceEUR,
		ReoptFromHour: cfg.Simulation.ReoptFromHour,
		ReoptToHour:   cfg.Simulation.ReoptToHour,
	})
	if err != nil {
		return nil, err
	}

	fleet := fleetstatus.NewMemoryStore()
	for _, b := range port.Boats {
		fleet.Set(fleetstatus.Status{
			Vessel:      b.Name,
			State:       fleetstatus.StateDocked,
			SoC:         b.SoC,
			StoredKWh:   b.SoC * b.BatteryKWh,
			CapacityKWh: b.BatteryKWh,
		})
	}

	svc := &Service{Engine: engine, Bus: bus, log: log, st: st, port: port, fleet: fleet}
	if cfg.Metrics.PrometheusEnabled {
		svc.promAddr = cfg.Metrics.PrometheusAddr
	}
	if cfg.Audit.Enabled {
		trail, err := infraaudit.NewRotatingJSONLStore(cfg.Audit.Path,
			cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups, cfg.Audit.MaxAgeDays)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		svc.audit = trail
	}
	if cfg.API.Enabled {
		svc.apiAddr = cfg.API.Addr
		svc.apiToken = cfg.API.Token
	}
	return svc, nil
}

// Run simulates the window and blocks until it completes or the context is
// cancelled.
func (s *Service) Run(ctx context.Context, from, to time.Time) error {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiAddr != "" {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	watch := s.Bus.SubscribeBuffered(128)
	go s.watchEvents(ctx, watch)
	return s.Engine.Run(ctx, from, to)
}

// serveAPI exposes fleet status, KPIs and the event trail over HTTP until
// the context is cancelled.
func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/vessels/status", vesselsapi.NewStatusHandler(s.fleet, s.st))
	mux.Handle("/api/vessels/", vesselsapi.NewKPIHandler(liveKPIStore{st: s.st, port: s.port}))
	if s.audit != nil {
		mux.Handle("/api/events", eventlogapi.NewLogHandler(s.audit, s.apiToken))
	}
	srv := &http.Server{Addr: s.apiAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// watchEvents keeps the fleet status cache and the audit trail current and
// forwards degraded-schedule conditions to the error tracker.
func (s *Service) watchEvents(ctx context.Context, ch <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			switch ev := e.(type) {
			case events.TripEvent:
				s.fleet.SetTrip(ev.Vessel, fleetstatus.LastTrip{
					Route:  ev.Route,
					Action: string(ev.Action),
					At:     ev.At,
				})
				s.record(ctx, auditlog.Record{
					Time:   ev.At,
					Kind:   auditlog.KindTrip,
					Vessel: ev.Vessel,
					Route:  ev.Route,
					Action: string(ev.Action),
				})
			case events.ScheduleEvent:
				if ev.Fallback {
					coremon.CaptureMessage("schedule solve fell back", map[string]string{"status": ev.Status})
				}
				s.record(ctx, auditlog.Record{
					Time:        ev.Start,
					Kind:        auditlog.KindSchedule,
					Status:      ev.Status,
					Fallback:    ev.Fallback,
					Reoptimized: ev.Reoptimized,
					UnmetKWh:    ev.UnmetKWh,
				})
			case events.ShortfallEvent:
				coremon.CaptureMessage("vessel cannot reach departure charge", map[string]string{"vessel": ev.Vessel})
				s.record(ctx, auditlog.Record{
					Time:       ev.At,
					Kind:       auditlog.KindShortfall,
					Vessel:     ev.Vessel,
					MissingKWh: ev.MissingKWh,
				})
			}
		}
	}
}

func (s *Service) record(ctx context.Context, rec auditlog.Record) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		s.log.Errorf("audit append: %v", err)
	}
}

// Close releases the store and the audit trail and flushes pending
// monitoring events.
func (s *Service) Close() error {
	s.Bus.Close()
	err := s.st.Close()
	if s.audit != nil {
		if aerr := s.audit.Close(); aerr != nil && err == nil {
			err = aerr
		}
	}
	coremon.Flush(2 * time.Second)
	return err
}

func loadRoutes(path string) ([]*model.Trip, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return tripfile.LoadDir(path)
	}
	t, err := tripfile.Load(path)
	if err != nil {
		return nil, err
	}
	return []*model.Trip{t}, nil
}

func buildStore(cfg *config.Config) (store.Store, error) {
	primary, err := infrastore.NewBackend(factory.ModuleConfig{
		Type: cfg.Store.Backend,
		Conf: map[string]any{"path": cfg.Store.Path},
	})
	if err != nil {
		return nil, err
	}
	stores := []store.Store{primary}
	if cfg.Store.Influx.Enabled {
		ic := cfg.Store.Influx
		mirror, err := infrastore.NewBackend(factory.ModuleConfig{
			Type: "influx",
			Conf: map[string]any{"url": ic.URL, "token": ic.Token, "org": ic.Org, "bucket": ic.Bucket},
		})
		if err != nil {
			return nil, err
		}
		stores = append(stores, mirror)
	}
	if cfg.Telemetry.Enabled {
		pub, err := telemetry.New(cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		stores = append(stores, pub)
	}
	if len(stores) == 1 {
		return primary, nil
	}
	return infrastore.NewMultiStore(stores...), nil
}

func buildWeather(cfg config.WeatherConfig) weather.Provider {
	if cfg.Provider == "clearsky" {
		return infraweather.NewClearSky()
	}
	if cfg.BaseURL != "" {
		return infraweather.NewOpenMeteoWithBase(cfg.BaseURL)
	}
	return infraweather.NewOpenMeteo()
}
