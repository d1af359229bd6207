package vessels

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kplatou/harborwatt/core/kpi"
)

// NewKPIHandler exposes daily energy KPIs via GET /api/vessels/{name}/kpis.
// start and end take YYYY-MM-DD dates; end defaults to today.
func NewKPIHandler(store kpi.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/vessels/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		vessel := parts[0]
		start, _ := time.Parse("2006-01-02", r.URL.Query().Get("start"))
		end, _ := time.Parse("2006-01-02", r.URL.Query().Get("end"))
		if end.IsZero() {
			end = kpi.Day(time.Now().UTC())
		}
		recs, err := store.Query(vessel, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Date       string  `json:"date"`
			ChargedKWh float64 `json:"charged_kwh"`
			SailedKWh  float64 `json:"sailed_kwh"`
			NetKWh     float64 `json:"net_kwh"`
			Turnover   float64 `json:"turnover"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{
				Date:       rec.Date.Format("2006-01-02"),
				ChargedKWh: rec.ChargedKWh,
				SailedKWh:  rec.SailedKWh,
				NetKWh:     rec.NetKWh(),
				Turnover:   rec.Turnover(),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(outSlice)
	})
}
