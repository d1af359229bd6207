package weather

import (
	"context"
	"time"
)

// Sample is one hour of weather at a site. Irradiance components are W/m²:
// GHI global horizontal, DNI direct normal, DHI diffuse horizontal.
type Sample struct {
	Time  time.Time
	GHI   float64
	DNI   float64
	DHI   float64
	TempC float64
	// WindMS is wind speed at 10 m in m/s.
	WindMS float64
}

// Provider returns hourly samples covering [from, to].
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64, from, to time.Time) ([]Sample, error)
}

// Default is the sample substituted for any hour the provider has no data
// for: zero irradiance at 20°C. A gap degrades the forecast, it never fails
// the run.
func Default(t time.Time) Sample {
	return Sample{Time: t, TempC: 20}
}

// At returns the sample whose hour covers t, or Default(t) when the series
// has no such hour.
func At(samples []Sample, t time.Time) Sample {
	for _, s := range samples {
		if !s.Time.After(t) && t.Before(s.Time.Add(time.Hour)) {
			return s
		}
	}
	return Default(t)
}
