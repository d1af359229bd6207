package kpi

import (
	"context"
	"time"

	corekpi "github.com/kplatou/harborwatt/core/kpi"
	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/store"
)

// Backfill recomputes daily vessel KPIs from the recorded SoC series and
// adds them to the KPI store. SoC gains count as charged energy, losses as
// sailed energy, both scaled by battery capacity. Values are battery-side:
// charger conversion losses never reach the vessel and are not counted.
func Backfill(ctx context.Context, st store.Store, port *model.Port, from, to time.Time, dest corekpi.Store) error {
	for _, b := range port.Boats {
		recs, err := st.Query(ctx, store.Query{
			Table:  store.TableMeasurements,
			Source: b.Name,
			Metric: store.MetricSoC,
			Start:  from,
			End:    to,
		})
		if err != nil {
			return err
		}
		if err := accumulate(b, recs, dest); err != nil {
			return err
		}
	}
	return nil
}

func accumulate(b *model.Boat, recs []store.Record, dest corekpi.Store) error {
	var prev float64
	havePrev := false
	for _, r := range recs {
		soc, err := store.ParseValue(r.Value)
		if err != nil {
			return err
		}
		if !havePrev {
			prev, havePrev = soc, true
			continue
		}
		delta := (soc - prev) * b.BatteryKWh
		prev = soc
		if delta == 0 {
			continue
		}
		rec := corekpi.Record{Vessel: b.Name, Date: corekpi.Day(r.Time)}
		if delta > 0 {
			rec.ChargedKWh = delta
		} else {
			rec.SailedKWh = -delta
		}
		if err := dest.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
