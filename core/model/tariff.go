package model

import "time"

// TariffPeriod defines a price valid during a clock window on given weekdays.
type TariffPeriod struct {
	Weekdays  []time.Weekday // empty means every day
	FromHour  int            // inclusive
	ToHour    int            // exclusive, may wrap past midnight when <= FromHour
	EURPerKWh float64
}

// Tariff is an optional time-of-day and day-of-week grid price table.
type Tariff struct {
	DefaultEURPerKWh float64
	Periods          []TariffPeriod
}

func (p TariffPeriod) matches(t time.Time) bool {
	if len(p.Weekdays) > 0 {
		found := false
		for _, d := range p.Weekdays {
			if t.Weekday() == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	h := t.Hour()
	if p.FromHour < p.ToHour {
		return h >= p.FromHour && h < p.ToHour
	}
	// window wraps past midnight
	return h >= p.FromHour || h < p.ToHour
}

// PriceAt returns the grid price at t. The first matching period wins;
// without a match the default price applies.
func (tf *Tariff) PriceAt(t time.Time) float64 {
	for _, p := range tf.Periods {
		if p.matches(t) {
			return p.EURPerKWh
		}
	}
	return tf.DefaultEURPerKWh
}
