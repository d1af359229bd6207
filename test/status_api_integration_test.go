package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	vesselsapi "github.com/kplatou/harborwatt/api/vessels"
	"github.com/kplatou/harborwatt/core/fleetstatus"
)

func TestStatusAPIIntegration(t *testing.T) {
	port, st, tripEvents := runWeekday(t)

	fleet := fleetstatus.NewMemoryStore()
	for _, b := range port.Boats {
		fleet.Set(fleetstatus.Status{
			Vessel:      b.Name,
			State:       fleetstatus.StateDocked,
			CapacityKWh: b.BatteryKWh,
		})
	}
	for _, te := range tripEvents {
		fleet.SetTrip(te.Vessel, fleetstatus.LastTrip{
			Route:  te.Route,
			Action: string(te.Action),
			At:     te.At,
		})
	}

	h := vesselsapi.NewStatusHandler(fleet, st)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.Fatalf("close body: %v", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out []fleetstatus.Status
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Vessel != "ferry" {
		t.Fatalf("unexpected response %#v", out)
	}
	if out[0].State != fleetstatus.StateDocked {
		t.Fatalf("ferry should be docked after the run, got %q", out[0].State)
	}
	if out[0].LastTrip.Route != "harbor-loop" || out[0].LastTrip.Action != "completed" {
		t.Fatalf("last trip not reflected: %#v", out[0].LastTrip)
	}
	// The shore charger refills the ferry between and after trips.
	if out[0].SoC < 0.95 {
		t.Fatalf("expected a recharged ferry, got SoC %.3f", out[0].SoC)
	}
	if out[0].StoredKWh < 380 || out[0].CapacityKWh != 400 {
		t.Fatalf("battery figures wrong: %#v", out[0])
	}
}
