package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kplatou/harborwatt/config"
	"github.com/kplatou/harborwatt/core/factory"
	corekpi "github.com/kplatou/harborwatt/core/kpi"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/store"
	infrastore "github.com/kplatou/harborwatt/infra/store"
	jobkpi "github.com/kplatou/harborwatt/jobs/kpi"
)

// Rollup aggregates per-vessel daily charged and sailed energy for the
// window from the configured store. The window covers [from, to] whole
// days.
func Rollup(ctx context.Context, cfg *config.Config, from, to time.Time) ([]corekpi.Record, error) {
	cfg.Logging.Apply()

	port, err := cfg.Port.ToModel()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	st, err := infrastore.NewBackend(factory.ModuleConfig{
		Type: cfg.Store.Backend,
		Conf: map[string]any{"path": cfg.Store.Path},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	dest := corekpi.NewMemoryStore()
	if err := jobkpi.Backfill(ctx, st, port, from, to.AddDate(0, 0, 1), dest); err != nil {
		return nil, err
	}

	var out []corekpi.Record
	for _, b := range port.Boats {
		recs, err := dest.Query(b.Name, from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// liveKPIStore serves KPI queries on demand from the measurement store so
// the HTTP API reflects the current run. Add is not supported; persisting
// rollups goes through the kpi command.
type liveKPIStore struct {
	st   store.Store
	port *model.Port
}

func (l liveKPIStore) Add(corekpi.Record) error {
	return fmt.Errorf("live kpi store is read-only")
}

func (l liveKPIStore) Query(vessel string, start, end time.Time) ([]corekpi.Record, error) {
	dest := corekpi.NewMemoryStore()
	if err := jobkpi.Backfill(context.Background(), l.st, l.port, start, end.AddDate(0, 0, 1), dest); err != nil {
		return nil, err
	}
	return dest.Query(vessel, start, end)
}
