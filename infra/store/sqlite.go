package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kplatou/harborwatt/core/store"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS measurements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts INTEGER NOT NULL,
    source_id INTEGER NOT NULL REFERENCES sources(id),
    metric_id INTEGER NOT NULL REFERENCES metrics(id),
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS forecast (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts INTEGER NOT NULL,
    source_id INTEGER NOT NULL REFERENCES sources(id),
    metric_id INTEGER NOT NULL REFERENCES metrics(id),
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS scheduling (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts INTEGER NOT NULL,
    source_id INTEGER NOT NULL REFERENCES sources(id),
    metric_id INTEGER NOT NULL REFERENCES metrics(id),
    value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_lookup ON measurements(source_id, metric_id, ts);
CREATE INDEX IF NOT EXISTS idx_forecast_lookup ON forecast(source_id, metric_id, ts);
CREATE INDEX IF NOT EXISTS idx_scheduling_lookup ON scheduling(source_id, metric_id, ts);
`

// SQLiteStore persists records to a SQLite database. Source and metric
// names are normalized into id tables; resolution is get-or-create and the
// resolved ids are cached per store instance.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.Mutex
	sources map[string]int64
	metrics map[string]int64
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{
		db:      db,
		sources: make(map[string]int64),
		metrics: make(map[string]int64),
	}, nil
}

func tableName(t store.Table) (string, error) {
	switch t {
	case store.TableMeasurements, store.TableForecast, store.TableScheduling:
		return string(t), nil
	default:
		return "", fmt.Errorf("unknown table %q", t)
	}
}

// SourceID resolves a source name to its id, creating it on first use.
func (s *SQLiteStore) SourceID(ctx context.Context, name string) (int64, error) {
	return s.resolve(ctx, "sources", s.sources, name)
}

// MetricID resolves a metric name to its id, creating it on first use.
func (s *SQLiteStore) MetricID(ctx context.Context, name string) (int64, error) {
	return s.resolve(ctx, "metrics", s.metrics, name)
}

func (s *SQLiteStore) resolve(ctx context.Context, table string, cache map[string]int64, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := cache[name]; ok {
		return id, nil
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, table), name); err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, table), name).Scan(&id); err != nil {
		return 0, err
	}
	cache[name] = id
	return id, nil
}

// Append writes the records to the given table in one transaction. Ids are
// resolved up front so the name tables are never written while the batch
// transaction holds the database's write lock.
func (s *SQLiteStore) Append(ctx context.Context, table store.Table, recs ...store.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tbl, err := tableName(table)
	if err != nil {
		return err
	}
	type row struct {
		ts       int64
		sid, mid int64
		value    string
	}
	rows := make([]row, 0, len(recs))
	for _, rec := range recs {
		sid, err := s.SourceID(ctx, rec.Source)
		if err != nil {
			return err
		}
		mid, err := s.MetricID(ctx, rec.Metric)
		if err != nil {
			return err
		}
		rows = append(rows, row{ts: rec.Time.Unix(), sid: sid, mid: mid, value: rec.Value})
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (ts, source_id, metric_id, value) VALUES (?, ?, ?, ?)`, tbl))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ts, r.sid, r.mid, r.value); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns records matching q ordered by time.
func (s *SQLiteStore) Query(ctx context.Context, q store.Query) ([]store.Record, error) {
	tbl, err := tableName(q.Table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT t.ts, src.name, met.name, t.value FROM %s t
        JOIN sources src ON src.id = t.source_id
        JOIN metrics met ON met.id = t.metric_id
        WHERE 1=1`, tbl)
	var args []any
	if q.Source != "" {
		query += ` AND src.name = ?`
		args = append(args, q.Source)
	}
	if q.Metric != "" {
		query += ` AND met.name = ?`
		args = append(args, q.Metric)
	}
	if !q.Start.IsZero() {
		query += ` AND t.ts >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND t.ts < ?`
		args = append(args, q.End.Unix())
	}
	query += ` ORDER BY t.ts, t.id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []store.Record
	for rows.Next() {
		var ts int64
		var rec store.Record
		if err := rows.Scan(&ts, &rec.Source, &rec.Metric, &rec.Value); err != nil {
			return nil, err
		}
		rec.Time = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteRange removes records in [start, end) matching the filters.
func (s *SQLiteStore) DeleteRange(ctx context.Context, table store.Table, source, metric string, start, end time.Time) error {
	tbl, err := tableName(table)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE 1=1`, tbl)
	var args []any
	if source != "" {
		query += ` AND source_id = (SELECT id FROM sources WHERE name = ?)`
		args = append(args, source)
	}
	if metric != "" {
		query += ` AND metric_id = (SELECT id FROM metrics WHERE name = ?)`
		args = append(args, metric)
	}
	if !start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, start.Unix())
	}
	if !end.IsZero() {
		query += ` AND ts < ?`
		args = append(args, end.Unix())
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
