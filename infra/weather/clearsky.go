package weather

import (
	"context"
	"math"
	"time"

	"github.com/kplatou/harborwatt/core/weather"
)

// ClearSky synthesizes a cloudless day without network access: a half-sine
// irradiance bell between 06:00 and 18:00 UTC, mild temperatures, light
// wind. It is the offline default so simulations run without an API key or
// connectivity.
type ClearSky struct {
	// PeakGHI is the solar-noon global horizontal irradiance in W/m².
	PeakGHI float64
}

// NewClearSky returns a provider with a 900 W/m² noon peak.
func NewClearSky() *ClearSky {
	return &ClearSky{PeakGHI: 900}
}

// Fetch synthesizes hourly samples covering [from, to].
func (c *ClearSky) Fetch(_ context.Context, _, _ float64, from, to time.Time) ([]weather.Sample, error) {
	var samples []weather.Sample
	for t := from.Truncate(time.Hour); !t.After(to); t = t.Add(time.Hour) {
		samples = append(samples, c.sampleAt(t))
	}
	return samples, nil
}

func (c *ClearSky) sampleAt(t time.Time) weather.Sample {
	h := float64(t.UTC().Hour()) + float64(t.UTC().Minute())/60
	s := weather.Sample{Time: t, TempC: 15, WindMS: 3}
	if h < 6 || h > 18 {
		return s
	}
	bell := math.Sin(math.Pi * (h - 6) / 12)
	ghi := c.PeakGHI * bell
	s.GHI = ghi
	s.DHI = 0.15 * ghi
	s.DNI = 0.85 * ghi
	s.TempC = 15 + 8*bell
	return s
}
