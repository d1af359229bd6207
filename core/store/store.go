package store

import (
	"context"
	"strconv"
	"time"
)

// Table names one of the three logical partitions of the time-series store.
type Table string

const (
	// TableMeasurements holds ground-truth values emitted by the engine.
	TableMeasurements Table = "measurements"
	// TableForecast holds day-ahead predictions.
	TableForecast Table = "forecast"
	// TableScheduling holds planned power setpoints.
	TableScheduling Table = "scheduling"
)

// MetricPowerSetpoint is the metric under which schedules persist per-device
// planned power. Battery rows are signed (+discharge, -charge), charger rows
// are non-negative.
const MetricPowerSetpoint = "power_setpoint"

// Record is one time-series point. Value is string-encoded so a single
// schema holds floats, states and flags alike.
type Record struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source"`
	Metric string    `json:"metric"`
	Value  string    `json:"value"`
}

// Query filters a range read. Empty Source or Metric match everything;
// a zero Start or End leaves that side unbounded. The window is half-open:
// Start inclusive, End exclusive.
type Query struct {
	Table  Table
	Source string
	Metric string
	Start  time.Time
	End    time.Time
}

// Store persists Records in three logical tables. Source and metric names
// are resolved to identifiers on first use; resolution is idempotent, so
// appending under the same name twice never creates a second identity.
type Store interface {
	// Append writes the records to the given table in one batch.
	Append(ctx context.Context, table Table, recs ...Record) error
	// Query returns records matching q, ordered by time.
	Query(ctx context.Context, q Query) ([]Record, error)
	// DeleteRange removes records in [start, end) matching the source and
	// metric filters. Empty source or metric match everything.
	DeleteRange(ctx context.Context, table Table, source, metric string, start, end time.Time) error
	// Close releases underlying resources.
	Close() error
}

// FormatValue encodes a float for storage.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseValue decodes a float stored with FormatValue.
func ParseValue(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
