package vessels

import (
	"encoding/json"
	"net/http"

	"github.com/kplatou/harborwatt/core/fleetstatus"
	"github.com/kplatou/harborwatt/core/store"
)

// NewStatusHandler returns an HTTP handler exposing fleet status via
// GET /api/vessels/status. Battery figures are refreshed from the latest
// stored measurement so the response reflects the run, not just the last
// trip transition.
func NewStatusHandler(fleet fleetstatus.Store, st store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		entries := fleet.List(fleetstatus.Filter{State: r.URL.Query().Get("state")})
		for i := range entries {
			recs, err := st.Query(r.Context(), store.Query{
				Table:  store.TableMeasurements,
				Source: entries[i].Vessel,
				Metric: store.MetricSoC,
			})
			if err != nil || len(recs) == 0 {
				continue
			}
			last := recs[len(recs)-1]
			soc, err := store.ParseValue(last.Value)
			if err != nil {
				continue
			}
			entries[i].SoC = soc
			entries[i].StoredKWh = soc * entries[i].CapacityKWh
			if last.Time.After(entries[i].UpdatedAt) {
				entries[i].UpdatedAt = last.Time
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
