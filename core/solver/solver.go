package solver

import (
	"context"
	"time"
)

// Status classifies a solve outcome.
type Status int

const (
	// StatusOptimal means the backend proved optimality.
	StatusOptimal Status = iota
	// StatusFeasible means an incumbent was found but not proven optimal.
	StatusFeasible
	// StatusTimeLimit means the wall-clock budget expired. The result
	// carries the best incumbent if the backend had one.
	StatusTimeLimit
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusError means the backend failed for another reason.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusTimeLimit:
		return "time_limit"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "error"
	}
}

// Usable reports whether callers may extract values for this status,
// provided the result actually carries them.
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusFeasible || s == StatusTimeLimit
}

// Result is a solve outcome. Values are present only when the backend
// produced an assignment.
type Result struct {
	Status    Status
	Objective float64
	values    map[string]float64
}

// NewResult builds a result with variable values. Backends use this.
func NewResult(status Status, objective float64, values map[string]float64) Result {
	return Result{Status: status, Objective: objective, values: values}
}

// HasValues reports whether an assignment is available.
func (r Result) HasValues() bool { return r.values != nil }

// Value returns the assignment of the named variable, zero when absent.
func (r Result) Value(name string) float64 { return r.values[name] }

// Solver solves a model within a wall-clock budget. Semantic outcomes
// (infeasible, time limit) are reported through Result.Status; the error
// covers model misuse and backend failures.
type Solver interface {
	Solve(ctx context.Context, m *Model, budget time.Duration) (Result, error)
}
