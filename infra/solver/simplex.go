package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kplatou/harborwatt/core/solver"
	"github.com/kplatou/harborwatt/infra/logger"
)

// lpSolve points at gonum's simplex so tests can simulate backend failures.
var lpSolve = lp.Simplex

// Simplex solves models with gonum's dense simplex method. Integer
// variables are relaxed to continuous; power schedules tolerate fractional
// values. Every variable needs a finite lower bound: the adapter shifts
// variables to the nonnegative orthant instead of splitting them into
// positive and negative parts, which keeps value extraction exact.
type Simplex struct {
	// Tol is the pivot tolerance handed to the backend.
	Tol float64
	log logger.Logger
}

// NewSimplex returns an adapter with the default tolerance.
func NewSimplex() *Simplex {
	return &Simplex{Tol: 1e-7, log: logger.New("solver")}
}

// Solve implements solver.Solver. The budget is a soft wall-clock limit:
// gonum's simplex cannot be interrupted, so on expiry the result reports
// StatusTimeLimit without values and the abandoned solve finishes in the
// background.
func (s *Simplex) Solve(ctx context.Context, m *solver.Model, budget time.Duration) (solver.Result, error) {
	if err := m.Validate(); err != nil {
		return solver.Result{Status: solver.StatusError}, err
	}
	sf, err := build(m)
	if err != nil {
		return solver.Result{Status: solver.StatusError}, err
	}
	if sf.a == nil {
		return s.solveUnconstrained(sf)
	}

	type outcome struct {
		f   float64
		x   []float64
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		f, x, err := lpSolve(sf.c, sf.a, sf.b, s.Tol, nil)
		ch <- outcome{f: f, x: x, err: err}
	}()

	var timeout <-chan time.Time
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case out := <-ch:
		return s.extract(sf, out.f, out.x, out.err)
	case <-timeout:
		s.log.Warnf("solve abandoned after %s budget", budget)
		return solver.Result{Status: solver.StatusTimeLimit}, nil
	case <-ctx.Done():
		return solver.Result{Status: solver.StatusError}, ctx.Err()
	}
}

// standardForm is min c·z s.t. a·z = b, z >= 0, where z holds the shifted
// variables followed by one slack per inequality row.
type standardForm struct {
	c     []float64
	a     *mat.Dense
	b     []float64
	vars  []solver.Var
	shift float64 // objective constant introduced by the lower-bound shift
	neg   bool    // objective negated for maximization
}

func build(m *solver.Model) (*standardForm, error) {
	vars := m.Vars()
	n := len(vars)
	for _, v := range vars {
		if math.IsInf(v.Lower, -1) {
			return nil, fmt.Errorf("variable %q has no finite lower bound", v.Name)
		}
	}

	type row struct {
		coeffs []float64
		rhs    float64
	}
	var ineq, eq []row

	// shifted rewrites a constraint in terms of y = x - lower.
	shifted := func(terms []solver.Term, rhs float64) ([]float64, float64) {
		coeffs := make([]float64, n)
		for _, t := range terms {
			i, _ := m.VarIndex(t.Var)
			coeffs[i] += t.Coeff
			rhs -= t.Coeff * vars[i].Lower
		}
		return coeffs, rhs
	}

	for _, c := range m.Constraints() {
		coeffs, rhs := shifted(c.Terms, c.RHS)
		switch c.Sense {
		case solver.LE:
			ineq = append(ineq, row{coeffs, rhs})
		case solver.GE:
			for i := range coeffs {
				coeffs[i] = -coeffs[i]
			}
			ineq = append(ineq, row{coeffs, -rhs})
		case solver.EQ:
			eq = append(eq, row{coeffs, rhs})
		}
	}
	for i, v := range vars {
		if math.IsInf(v.Upper, 1) {
			continue
		}
		coeffs := make([]float64, n)
		coeffs[i] = 1
		ineq = append(ineq, row{coeffs, v.Upper - v.Lower})
	}

	obj := m.Objective()
	c := make([]float64, n)
	shift := 0.0
	for _, t := range obj.Terms {
		i, _ := m.VarIndex(t.Var)
		c[i] += t.Coeff
		shift += t.Coeff * vars[i].Lower
	}
	neg := obj.Direction == solver.Maximize
	if neg {
		for i := range c {
			c[i] = -c[i]
		}
	}

	sf := &standardForm{vars: vars, shift: shift, neg: neg}
	rows := len(ineq) + len(eq)
	if rows == 0 {
		sf.c = c
		return sf, nil
	}

	cols := n + len(ineq)
	sf.a = mat.NewDense(rows, cols, nil)
	sf.b = make([]float64, rows)
	sf.c = make([]float64, cols)
	copy(sf.c, c)
	for r, rw := range ineq {
		for i, v := range rw.coeffs {
			sf.a.Set(r, i, v)
		}
		sf.a.Set(r, n+r, 1)
		sf.b[r] = rw.rhs
	}
	for e, rw := range eq {
		r := len(ineq) + e
		for i, v := range rw.coeffs {
			sf.a.Set(r, i, v)
		}
		sf.b[r] = rw.rhs
	}
	return sf, nil
}

// solveUnconstrained handles models with no constraints and no finite
// upper bounds: each variable sits at its lower bound unless the objective
// rewards pushing it up forever, which is unbounded.
func (s *Simplex) solveUnconstrained(sf *standardForm) (solver.Result, error) {
	for i, ci := range sf.c {
		if ci < 0 {
			return solver.Result{Status: solver.StatusError},
				fmt.Errorf("model unbounded in variable %q", sf.vars[i].Name)
		}
	}
	return s.extract(sf, 0, make([]float64, len(sf.vars)), nil)
}

func (s *Simplex) extract(sf *standardForm, f float64, x []float64, err error) (solver.Result, error) {
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return solver.Result{Status: solver.StatusInfeasible}, nil
		}
		return solver.Result{Status: solver.StatusError}, err
	}
	values := make(map[string]float64, len(sf.vars))
	for i, v := range sf.vars {
		val := v.Lower
		if i < len(x) {
			val += x[i]
		}
		// Clamp numerical noise back into the declared bounds.
		if val < v.Lower {
			val = v.Lower
		}
		if val > v.Upper {
			val = v.Upper
		}
		values[v.Name] = val
	}
	objVal := f
	if sf.neg {
		objVal = -objVal
	}
	objVal += sf.shift
	return solver.NewResult(solver.StatusOptimal, objVal, values), nil
}
