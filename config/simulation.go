package config

import (
	"fmt"
	"time"

	"github.com/kplatou/harborwatt/core/schedule"
	"github.com/kplatou/harborwatt/core/sim"
)

// SimulationConfig tunes the engine loop and the optimizer.
type SimulationConfig struct {
	// Mode is "batch" or "incremental".
	Mode string `json:"mode"`
	// Policy is "schedule", "power-limited" or "unlimited".
	Policy string `json:"policy"`
	// Variant is the objective: "cost", "throughput" or "reliability-first".
	Variant string `json:"variant"`
	// StepMinutes is the timestep width.
	StepMinutes int `json:"step_minutes"`
	// Seed drives the route draw; runs with the same seed replay the
	// same trips.
	Seed int64 `json:"seed"`
	// CutoffHour cancels still-delayed trips for the day.
	CutoffHour int `json:"cutoff_hour"`
	// PaceMS throttles incremental runs to this many wall-clock
	// milliseconds per timestep. Zero runs flat out.
	PaceMS int `json:"pace_ms"`

	SolverBudgetSeconds int     `json:"solver_budget_seconds"`
	SlackPenaltyPerKWh  float64 `json:"slack_penalty_per_kwh"`
	UrgencyWindowHours  int     `json:"urgency_window_hours"`
	LateAlpha           float64 `json:"late_alpha"`
	CostWeight          float64 `json:"cost_weight"`
	CheapPriceEUR       float64 `json:"cheap_price_eur"`
	ReoptFromHour       int     `json:"reopt_from_hour"`
	ReoptToHour         int     `json:"reopt_to_hour"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(sim.ModeBatch)
	}
	if c.Policy == "" {
		c.Policy = string(sim.PolicySchedule)
	}
	if c.Variant == "" {
		c.Variant = string(schedule.VariantReliabilityFirst)
	}
	if c.StepMinutes <= 0 {
		c.StepMinutes = 60
	}
	if c.CutoffHour <= 0 {
		c.CutoffHour = 18
	}
	if c.SolverBudgetSeconds <= 0 {
		c.SolverBudgetSeconds = 10
	}
	def := schedule.DefaultTunables()
	if c.SlackPenaltyPerKWh <= 0 {
		c.SlackPenaltyPerKWh = def.SlackPenaltyPerKWh
	}
	if c.UrgencyWindowHours <= 0 {
		c.UrgencyWindowHours = int(def.UrgencyWindow / time.Hour)
	}
	if c.LateAlpha <= 0 {
		c.LateAlpha = def.LateAlpha
	}
	if c.CostWeight <= 0 {
		c.CostWeight = def.CostWeight
	}
	if c.CheapPriceEUR <= 0 {
		c.CheapPriceEUR = 0.10
	}
	if c.ReoptFromHour <= 0 {
		c.ReoptFromHour = 6
	}
	if c.ReoptToHour <= 0 {
		c.ReoptToHour = 22
	}
}

// Validate checks the enumerated fields.
func (c SimulationConfig) Validate() error {
	if _, err := sim.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := sim.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := schedule.ParseVariant(c.Variant); err != nil {
		return err
	}
	if c.StepMinutes <= 0 || c.StepMinutes > 24*60 {
		return fmt.Errorf("step_minutes %d outside (0,1440]", c.StepMinutes)
	}
	if c.CutoffHour < 0 || c.CutoffHour > 23 {
		return fmt.Errorf("cutoff_hour %d outside [0,23]", c.CutoffHour)
	}
	if c.ReoptFromHour >= c.ReoptToHour {
		return fmt.Errorf("reopt window [%d,%d) is empty", c.ReoptFromHour, c.ReoptToHour)
	}
	return nil
}

// Step returns the timestep as a duration.
func (c SimulationConfig) Step() time.Duration {
	return time.Duration(c.StepMinutes) * time.Minute
}

// Pace returns the real-time delay between incremental timesteps.
func (c SimulationConfig) Pace() time.Duration {
	return time.Duration(c.PaceMS) * time.Millisecond
}

// Budget returns the wall-clock limit for one solve.
func (c SimulationConfig) Budget() time.Duration {
	return time.Duration(c.SolverBudgetSeconds) * time.Second
}

// Tunables returns the optimizer weights for the schedule builder.
func (c SimulationConfig) Tunables() schedule.Tunables {
	return schedule.Tunables{
		SlackPenaltyPerKWh: c.SlackPenaltyPerKWh,
		UrgencyWindow:      time.Duration(c.UrgencyWindowHours) * time.Hour,
		LateAlpha:          c.LateAlpha,
		CostWeight:         c.CostWeight,
	}
}
