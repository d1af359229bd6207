package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/kplatou/harborwatt/core/schedule"
)

// Entry is one exported setpoint row.
type Entry struct {
	Device  string    `json:"device"`
	Time    time.Time `json:"time"`
	PowerKW float64   `json:"power_kw"`
}

// Flatten orders the schedule into rows by timestep, chargers before
// batteries, devices alphabetically within each group.
func Flatten(s *schedule.Schedule) []Entry {
	chargers := sortedKeys(s.ChargerKW)
	batteries := sortedKeys(s.BatteryKW)
	entries := make([]Entry, 0, s.Steps*(len(chargers)+len(batteries)))
	for i := 0; i < s.Steps; i++ {
		ts := s.Start.Add(time.Duration(i) * s.Step)
		for _, name := range chargers {
			entries = append(entries, Entry{Device: name, Time: ts, PowerKW: s.ChargerKW[name][i]})
		}
		for _, name := range batteries {
			entries = append(entries, Entry{Device: name, Time: ts, PowerKW: s.BatteryKW[name][i]})
		}
	}
	return entries
}

// WriteJSON writes the schedule setpoints to w in JSON format.
func WriteJSON(w io.Writer, s *schedule.Schedule) error {
	enc := json.NewEncoder(w)
	return enc.Encode(Flatten(s))
}

// WriteCSV writes the schedule setpoints to w in CSV format.
func WriteCSV(w io.Writer, s *schedule.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"device", "time", "power_kw"}); err != nil {
		return err
	}
	for _, e := range Flatten(s) {
		rec := []string{
			e.Device,
			e.Time.Format(time.RFC3339),
			strconv.FormatFloat(e.PowerKW, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
