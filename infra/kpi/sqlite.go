package kpi

import (
	"database/sql"
	"time"

	core "github.com/kplatou/harborwatt/core/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists daily vessel KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS vessel_kpi (
        vessel TEXT,
        day INTEGER,
        charged REAL,
        sailed REAL,
        PRIMARY KEY(vessel, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or accumulates the record under its vessel and day.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO vessel_kpi (vessel, day, charged, sailed)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(vessel, day) DO UPDATE SET
            charged = charged + excluded.charged,
            sailed = sailed + excluded.sailed`,
		r.Vessel, d.Unix(), r.ChargedKWh, r.SailedKWh)
	return err
}

// Query returns the vessel's records in [start, end] ordered by day.
func (s *SQLiteStore) Query(vessel string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT vessel, day, charged, sailed
        FROM vessel_kpi WHERE vessel = ? AND day >= ? AND day <= ? ORDER BY day`,
		vessel, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var name string
		var ts int64
		var charged, sailed float64
		if err := rows.Scan(&name, &ts, &charged, &sailed); err != nil {
			return nil, err
		}
		res = append(res, core.Record{
			Vessel:     name,
			Date:       time.Unix(ts, 0).UTC(),
			ChargedKWh: charged,
			SailedKWh:  sailed,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
