package solver

import (
	"fmt"
	"math"
)

// Var is a decision variable with inclusive bounds. Integer marks a
// variable the backend may treat as integral; backends without integer
// support relax the flag.
type Var struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Term is one coefficient of a linear expression.
type Term struct {
	Var   string
	Coeff float64
}

// Sense relates a constraint's expression to its right-hand side.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return "?"
	}
}

// Constraint is a named linear constraint.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Direction is the optimization sense.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Objective is a linear objective with a direction.
type Objective struct {
	Direction Direction
	Terms     []Term
}

// Model is a linear program under construction. Add methods record the
// first construction error; Validate surfaces it before solving.
type Model struct {
	vars  []Var
	index map[string]int
	cons  []Constraint
	obj   Objective
	err   error
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{index: make(map[string]int)}
}

// AddVar declares a bounded continuous variable. Use math.Inf for an
// unbounded side.
func (m *Model) AddVar(name string, lower, upper float64) {
	m.addVar(Var{Name: name, Lower: lower, Upper: upper})
}

// AddIntVar declares a bounded integer variable.
func (m *Model) AddIntVar(name string, lower, upper float64) {
	m.addVar(Var{Name: name, Lower: lower, Upper: upper, Integer: true})
}

func (m *Model) addVar(v Var) {
	if m.err != nil {
		return
	}
	if v.Name == "" {
		m.err = fmt.Errorf("variable with empty name")
		return
	}
	if _, dup := m.index[v.Name]; dup {
		m.err = fmt.Errorf("duplicate variable %q", v.Name)
		return
	}
	if v.Lower > v.Upper {
		m.err = fmt.Errorf("variable %q: lower bound %g above upper %g", v.Name, v.Lower, v.Upper)
		return
	}
	m.index[v.Name] = len(m.vars)
	m.vars = append(m.vars, v)
}

// AddConstraint adds the linear constraint sum(terms) <sense> rhs.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	if m.err != nil {
		return
	}
	m.cons = append(m.cons, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// SetObjective sets the direction and linear objective.
func (m *Model) SetObjective(dir Direction, terms []Term) {
	m.obj = Objective{Direction: dir, Terms: terms}
}

// Validate returns the first construction error, or an error for a term
// referencing an undeclared variable.
func (m *Model) Validate() error {
	if m.err != nil {
		return m.err
	}
	if len(m.vars) == 0 {
		return fmt.Errorf("model has no variables")
	}
	check := func(where string, terms []Term) error {
		for _, t := range terms {
			if _, ok := m.index[t.Var]; !ok {
				return fmt.Errorf("%s references unknown variable %q", where, t.Var)
			}
			if math.IsNaN(t.Coeff) {
				return fmt.Errorf("%s has NaN coefficient on %q", where, t.Var)
			}
		}
		return nil
	}
	for _, c := range m.cons {
		if err := check(fmt.Sprintf("constraint %q", c.Name), c.Terms); err != nil {
			return err
		}
	}
	return check("objective", m.obj.Terms)
}

// Vars returns the declared variables in declaration order.
func (m *Model) Vars() []Var { return m.vars }

// VarIndex returns the position of a declared variable.
func (m *Model) VarIndex(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Constraints returns the constraints in insertion order.
func (m *Model) Constraints() []Constraint { return m.cons }

// Objective returns the model's objective.
func (m *Model) Objective() Objective { return m.obj }
