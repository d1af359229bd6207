package solar

import (
	"math"
	"time"

	"github.com/kplatou/harborwatt/core/model"
	"github.com/kplatou/harborwatt/core/weather"
)

const (
	albedo      = 0.2    // ground reflectance
	noctC       = 45.0   // nominal operating cell temperature, °C
	tempCoeff   = -0.004 // relative power change per K above 25°C
	inverterEff = 0.96
)

// PVModel estimates AC output of a fixed-tilt array: isotropic-sky
// transposition of the irradiance components onto the panel plane, a
// wind-adjusted NOCT cell temperature derate, and a flat inverter
// efficiency. Solar time is approximated from longitude alone, which is
// accurate enough at simulation timestep resolution.
type PVModel struct{}

// NewPVModel returns the default flat-plate model.
func NewPVModel() *PVModel { return &PVModel{} }

// ACPowerKW implements solar.Model.
func (m *PVModel) ACPowerKW(s weather.Sample, array model.PVArray, t time.Time, lat, lon float64) float64 {
	elev, az := sunPosition(t, lat, lon)
	if elev <= 0 {
		return 0
	}
	poa := planeOfArray(s, array, elev, az)
	if poa <= 0 {
		return 0
	}
	cell := cellTemp(s.TempC, s.WindMS, poa)
	dc := array.PeakKW * (poa / 1000) * (1 + tempCoeff*(cell-25))
	if dc < 0 {
		return 0
	}
	return dc * inverterEff
}

// sunPosition returns solar elevation and azimuth in radians at t.
// Azimuth is south-referenced, positive towards west.
func sunPosition(t time.Time, lat, lon float64) (elev, azimuth float64) {
	ut := t.UTC()
	n := float64(ut.YearDay())
	decl := deg2rad(23.45) * math.Sin(2*math.Pi*(284+n)/365)
	solarHour := float64(ut.Hour()) + float64(ut.Minute())/60 + lon/15
	hourAngle := deg2rad(15 * (solarHour - 12))
	phi := deg2rad(lat)

	sinElev := math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(hourAngle)
	elev = math.Asin(clamp(sinElev, -1, 1))

	denom := math.Cos(elev) * math.Cos(phi)
	if denom == 0 {
		return elev, 0
	}
	cosAz := (math.Sin(elev)*math.Sin(phi) - math.Sin(decl)) / denom
	azimuth = math.Acos(clamp(cosAz, -1, 1))
	if hourAngle < 0 {
		azimuth = -azimuth
	}
	return elev, azimuth
}

// planeOfArray transposes the irradiance components onto the tilted panel.
func planeOfArray(s weather.Sample, array model.PVArray, elev, sunAz float64) float64 {
	tilt := deg2rad(array.TiltDeg)
	// Panel azimuth is compass degrees (180 = south); convert to the
	// south-referenced convention used for the sun.
	panelAz := deg2rad(array.AzimuthDeg - 180)

	cosInc := math.Cos(elev)*math.Sin(tilt)*math.Cos(sunAz-panelAz) + math.Sin(elev)*math.Cos(tilt)
	beam := s.DNI * math.Max(cosInc, 0)
	diffuse := s.DHI * (1 + math.Cos(tilt)) / 2
	reflected := s.GHI * albedo * (1 - math.Cos(tilt)) / 2
	return beam + diffuse + reflected
}

// cellTemp applies the NOCT relation with the Skoplaki wind correction.
func cellTemp(ambientC, windMS, poa float64) float64 {
	windFactor := 9.5 / (5.7 + 3.8*windMS)
	return ambientC + (noctC-20)/800*poa*windFactor
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
