package tripfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kplatou/harborwatt/core/model"
)

// Route files are CSV with columns time,speed_kn,heading_deg,lat,lon.
// Timestamps are RFC 3339; only their differences matter, trips are
// replayed relative to their first waypoint.

// Load parses one route file. Malformed rows (wrong field count, bad
// timestamp or numbers) are skipped without error, so a header row needs
// no special handling. A file yielding fewer than two usable waypoints is
// a broken route and returns an error.
func Load(path string) (*model.Trip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	trip, err := parse(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trip, nil
}

// LoadDir loads every *.csv file in dir, sorted by file name.
func LoadDir(dir string) ([]*model.Trip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no route files in %s", dir)
	}
	trips := make([]*model.Trip, 0, len(names))
	for _, n := range names {
		trip, err := Load(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func parse(r io.Reader, name string) (*model.Trip, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var waypoints []model.Waypoint
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Row-level CSV damage counts as a malformed row.
			continue
		}
		wp, ok := parseRow(row)
		if !ok {
			continue
		}
		waypoints = append(waypoints, wp)
	}
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route needs at least 2 valid waypoints, got %d", len(waypoints))
	}
	sort.SliceStable(waypoints, func(i, j int) bool {
		return waypoints[i].Time.Before(waypoints[j].Time)
	})
	return &model.Trip{Name: name, Waypoints: waypoints}, nil
}

func parseRow(row []string) (model.Waypoint, bool) {
	if len(row) != 5 {
		return model.Waypoint{}, false
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
	if err != nil {
		return model.Waypoint{}, false
	}
	vals := make([]float64, 4)
	for i, s := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return model.Waypoint{}, false
		}
		vals[i] = v
	}
	if vals[0] < 0 {
		return model.Waypoint{}, false
	}
	return model.Waypoint{
		Time:       ts,
		SpeedKn:    vals[0],
		HeadingDeg: vals[1],
		Lat:        vals[2],
		Lon:        vals[3],
	}, true
}
