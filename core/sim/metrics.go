package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stepsTotal      prometheus.Counter
	tripTransitions *prometheus.CounterVec
	solveRuns       *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	gridImportKW    prometheus.Gauge
	vesselSoC       *prometheus.GaugeVec
	shortfallKWh    *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram, prometheus.Gauge, *prometheus.GaugeVec, *prometheus.GaugeVec) {
	steps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_steps_total",
			Help: "Number of simulation timesteps executed",
		},
	)
	trips := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_transitions_total",
			Help: "Number of trip state transitions",
		},
		[]string{"action"},
	)
	solves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_solves_total",
			Help: "Number of schedule builds by outcome",
		},
		[]string{"outcome"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schedule_solve_duration_seconds",
			Help:    "Wall-clock duration of schedule builds",
			Buckets: prometheus.DefBuckets,
		},
	)
	grid := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grid_import_kw",
			Help: "Current power imported from the grid",
		},
	)
	soc := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vessel_soc",
			Help: "State of charge per vessel",
		},
		[]string{"vessel"},
	)
	short := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vessel_shortfall_kwh",
			Help: "Unmet pre-departure energy per vessel in the latest schedule",
		},
		[]string{"vessel"},
	)
	return steps, trips, solves, dur, grid, soc, short
}

func init() {
	stepsTotal, tripTransitions, solveRuns, solveDuration, gridImportKW, vesselSoC, shortfallKWh = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers simulation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(stepsTotal, tripTransitions, solveRuns, solveDuration, gridImportKW, vesselSoC, shortfallKWh)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	stepsTotal, tripTransitions, solveRuns, solveDuration, gridImportKW, vesselSoC, shortfallKWh = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
