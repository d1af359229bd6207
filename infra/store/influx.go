package store

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kplatou/harborwatt/core/store"
	"github.com/kplatou/harborwatt/infra/logger"
)

// InfluxStore mirrors appended records to an InfluxDB bucket so dashboards
// can graph a live run. It is append-only: range reads and deletes stay on
// the primary store.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxStore creates a store configured for the given InfluxDB endpoint.
func NewInfluxStore(url, token, org, bucket string) *InfluxStore {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-store"),
	}
}

// NewInfluxStoreWithFallback pings the InfluxDB instance and returns a
// NopStore when the health check fails, so a missing dashboard never stops
// a simulation run.
func NewInfluxStoreWithFallback(url, token, org, bucket string) store.Store {
	s := NewInfluxStore(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := s.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			s.log.Errorf("influx health check error: %v", err)
		} else {
			s.log.Errorf("influx health status: %s", health.Status)
		}
		s.client.Close()
		return store.NopStore{}
	}
	return s
}

// Append writes one point per record. The measurement is the table name,
// source and metric become tags; values that parse as floats are written
// as numeric fields so they can be graphed directly.
func (s *InfluxStore) Append(ctx context.Context, table store.Table, recs ...store.Record) error {
	if _, err := tableName(table); err != nil {
		return err
	}
	for _, rec := range recs {
		p := write.NewPointWithMeasurement(string(table)).
			AddTag("source", rec.Source).
			AddTag("metric", rec.Metric).
			SetTime(rec.Time)
		if v, err := store.ParseValue(rec.Value); err == nil {
			p.AddField("value", v)
		} else {
			p.AddField("value_str", rec.Value)
		}
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Query is unsupported on the mirror.
func (s *InfluxStore) Query(context.Context, store.Query) ([]store.Record, error) {
	return nil, store.ErrUnsupported
}

// DeleteRange is unsupported on the mirror.
func (s *InfluxStore) DeleteRange(context.Context, store.Table, string, string, time.Time, time.Time) error {
	return store.ErrUnsupported
}

// Close shuts down the underlying client.
func (s *InfluxStore) Close() error {
	s.client.Close()
	return nil
}
