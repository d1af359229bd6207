package tripfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validRoute = `time,speed_kn,heading_deg,lat,lon
2024-06-01T09:00:00Z,0,90,43.30,5.37
2024-06-01T09:10:00Z,8.5,92,43.31,5.40
not-a-time,8.5,92,43.31,5.40
2024-06-01T09:20:00Z,ten,92,43.31,5.40
2024-06-01T10:00:00Z,0,270,43.30,5.37
`

func writeRoute(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write route: %v", err)
	}
	return path
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	path := writeRoute(t, t.TempDir(), "harbor_loop.csv", validRoute)
	trip, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if trip.Name != "harbor_loop" {
		t.Errorf("trip name %q, want harbor_loop", trip.Name)
	}
	// Header + 2 malformed rows dropped, 3 waypoints kept.
	if len(trip.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(trip.Waypoints))
	}
	if got := trip.Duration(); got != time.Hour {
		t.Errorf("duration %v, want 1h", got)
	}
}

func TestLoadTooFewWaypoints(t *testing.T) {
	path := writeRoute(t, t.TempDir(), "stub.csv", "2024-06-01T09:00:00Z,5,0,0,0\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for single-waypoint route")
	}
}

func TestLoadSortsOutOfOrderRows(t *testing.T) {
	const shuffled = `2024-06-01T09:30:00Z,5,0,0,0
2024-06-01T09:00:00Z,0,0,0,0
2024-06-01T09:15:00Z,7,0,0,0
`
	path := writeRoute(t, t.TempDir(), "shuffled.csv", shuffled)
	trip, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 1; i < len(trip.Waypoints); i++ {
		if trip.Waypoints[i].Time.Before(trip.Waypoints[i-1].Time) {
			t.Fatalf("waypoints not sorted at %d", i)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeRoute(t, dir, "b_route.csv", validRoute)
	writeRoute(t, dir, "a_route.csv", validRoute)
	writeRoute(t, dir, "notes.txt", "ignored")
	trips, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}
	if trips[0].Name != "a_route" || trips[1].Name != "b_route" {
		t.Errorf("trips not sorted by name: %s, %s", trips[0].Name, trips[1].Name)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without routes")
	}
}
