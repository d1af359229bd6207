package solar

import (
	"time"

	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/weather"
)

// Model converts weather into instantaneous AC power for one PV array.
// Implementations are pure functions of their inputs.
type Model interface {
	// ACPowerKW returns the array's AC output at instant t for the given
	// site coordinates. It returns 0 when the sun is below the horizon.
	ACPowerKW(s weather.Sample, array model.PVArray, t time.Time, lat, lon float64) float64
}
