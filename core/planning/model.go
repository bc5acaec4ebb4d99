package planning

import (
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/energyplan/core/model"
)

// VarKind distinguishes the four families of decision variables.
type VarKind int

const (
	// Generation is x[region, technology, scenario].
	Generation VarKind = iota
	// Trade is y[origin, destination, scenario].
	Trade
	// Threshold is the first-stage VaR level eta.
	Threshold
	// Excess is z[scenario], the cost above eta.
	Excess
)

func (k VarKind) String() string {
	switch k {
	case Generation:
		return "x"
	case Trade:
		return "y"
	case Threshold:
		return "eta"
	case Excess:
		return "z"
	default:
		return "unknown"
	}
}

// VarID indexes a decision variable. Fields that do not apply to the kind
// are left empty.
type VarID struct {
	Kind       VarKind
	Scenario   model.ScenarioID
	Region     model.Region
	To         model.Region
	Technology model.Technology
}

// GenerationVar returns the ID of x[r,t,s].
func GenerationVar(r model.Region, t model.Technology, s model.ScenarioID) VarID {
	return VarID{Kind: Generation, Region: r, Technology: t, Scenario: s}
}

// TradeVar returns the ID of y[from,to,s]. from and to must differ.
func TradeVar(from, to model.Region, s model.ScenarioID) VarID {
	return VarID{Kind: Trade, Region: from, To: to, Scenario: s}
}

// ThresholdVar returns the ID of eta.
func ThresholdVar() VarID { return VarID{Kind: Threshold} }

// ExcessVar returns the ID of z[s].
func ExcessVar(s model.ScenarioID) VarID { return VarID{Kind: Excess, Scenario: s} }

func (id VarID) String() string {
	switch id.Kind {
	case Generation:
		return fmt.Sprintf("x[%s,%s,%s]", id.Region, id.Technology, id.Scenario)
	case Trade:
		return fmt.Sprintf("y[%s,%s,%s]", id.Region, id.To, id.Scenario)
	case Threshold:
		return "eta"
	case Excess:
		return fmt.Sprintf("z[%s]", id.Scenario)
	default:
		return "unknown"
	}
}

func (id VarID) less(o VarID) bool {
	if id.Kind != o.Kind {
		return id.Kind < o.Kind
	}
	if id.Scenario != o.Scenario {
		return id.Scenario < o.Scenario
	}
	if id.Region != o.Region {
		return id.Region < o.Region
	}
	if id.To != o.To {
		return id.To < o.To
	}
	return id.Technology < o.Technology
}

// Variable is a decision variable with its bounds. Infinite bounds are
// expressed with math.Inf.
type Variable struct {
	ID    VarID
	Lower float64
	Upper float64
}

// Expr is a linear expression mapping variables to coefficients.
type Expr map[VarID]float64

// Add accumulates coef·id into e, dropping terms that cancel out.
func (e Expr) Add(id VarID, coef float64) {
	v := e[id] + coef
	if v == 0 {
		delete(e, id)
		return
	}
	e[id] = v
}

// AddExpr accumulates scale·o into e.
func (e Expr) AddExpr(o Expr, scale float64) {
	for id, c := range o {
		e.Add(id, scale*c)
	}
}

// Eval evaluates e at the given variable values. Missing values count as 0.
func (e Expr) Eval(values map[VarID]float64) float64 {
	var sum float64
	for id, c := range e {
		sum += c * values[id]
	}
	return sum
}

func (e Expr) clone() Expr {
	out := make(Expr, len(e))
	for id, c := range e {
		out[id] = c
	}
	return out
}

// Sense is the direction of a constraint.
type Sense int

const (
	// LessEq is lhs ≤ rhs.
	LessEq Sense = iota
	// GreaterEq is lhs ≥ rhs.
	GreaterEq
)

func (s Sense) String() string {
	if s == GreaterEq {
		return ">="
	}
	return "<="
}

// ConstraintKind identifies a constraint family.
type ConstraintKind int

const (
	// Demand is the per region and scenario balance.
	Demand ConstraintKind = iota
	// Capacity caps generation per region, technology and scenario.
	Capacity
	// CVaR is the epigraph constraint of a scenario.
	CVaR
)

func (k ConstraintKind) String() string {
	switch k {
	case Demand:
		return "demand"
	case Capacity:
		return "capacity"
	case CVaR:
		return "cvar"
	default:
		return "unknown"
	}
}

// ConstraintKey indexes a constraint.
type ConstraintKey struct {
	Kind       ConstraintKind
	Scenario   model.ScenarioID
	Region     model.Region
	Technology model.Technology
}

func (k ConstraintKey) String() string {
	switch k.Kind {
	case Demand:
		return fmt.Sprintf("demand_%s_%s", k.Region, k.Scenario)
	case Capacity:
		return fmt.Sprintf("capacity_%s_%s_%s", k.Region, k.Technology, k.Scenario)
	case CVaR:
		return fmt.Sprintf("cvar_%s", k.Scenario)
	default:
		return "unknown"
	}
}

func (k ConstraintKey) less(o ConstraintKey) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	if k.Scenario != o.Scenario {
		return k.Scenario < o.Scenario
	}
	if k.Region != o.Region {
		return k.Region < o.Region
	}
	return k.Technology < o.Technology
}

// Constraint is LHS <Sense> RHS.
type Constraint struct {
	Key   ConstraintKey
	LHS   Expr
	Sense Sense
	RHS   float64
}

// Satisfied reports whether values meet c within tol.
func (c Constraint) Satisfied(values map[VarID]float64, tol float64) bool {
	lhs := c.LHS.Eval(values)
	if c.Sense == GreaterEq {
		return lhs >= c.RHS-tol
	}
	return lhs <= c.RHS+tol
}

// Stats summarises the size of a model.
type Stats struct {
	Variables   int
	Constraints int
	ByKind      map[ConstraintKind]int
}

// Model is a fully formed optimisation problem. It is never modified after
// Build returns; accessors hand out copies.
type Model struct {
	name        string
	beta        float64
	kappa       float64
	vars        map[VarID]Variable
	objective   Expr
	constraints map[ConstraintKey]Constraint
	costs       map[model.ScenarioID]Expr
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Beta returns the risk level the model was built with.
func (m *Model) Beta() float64 { return m.beta }

// Kappa returns the unit trade cost the model was built with.
func (m *Model) Kappa() float64 { return m.kappa }

// Variables returns every variable in canonical order.
func (m *Model) Variables() []Variable {
	out := make([]Variable, 0, len(m.vars))
	for _, v := range m.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.less(out[j].ID) })
	return out
}

// Variable looks up a variable by ID.
func (m *Model) Variable(id VarID) (Variable, bool) {
	v, ok := m.vars[id]
	return v, ok
}

// Constraints returns every constraint in canonical order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, 0, len(m.constraints))
	for _, c := range m.constraints {
		c.LHS = c.LHS.clone()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// Constraint looks up a constraint by key.
func (m *Model) Constraint(key ConstraintKey) (Constraint, bool) {
	c, ok := m.constraints[key]
	if ok {
		c.LHS = c.LHS.clone()
	}
	return c, ok
}

// Objective returns the objective expression. The model is minimised.
func (m *Model) Objective() Expr { return m.objective.clone() }

// ScenarioCost returns the realised operating cost expression of s, that is
// generation plus trade cost, without probability weighting.
func (m *Model) ScenarioCost(s model.ScenarioID) (Expr, bool) {
	e, ok := m.costs[s]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

// Stats returns the number of variables and constraints.
func (m *Model) Stats() Stats {
	st := Stats{Variables: len(m.vars), Constraints: len(m.constraints), ByKind: make(map[ConstraintKind]int)}
	for k := range m.constraints {
		st.ByKind[k.Kind]++
	}
	return st
}

func nonNegative(id VarID) Variable { return Variable{ID: id, Lower: 0, Upper: math.Inf(1)} }

func free(id VarID) Variable { return Variable{ID: id, Lower: math.Inf(-1), Upper: math.Inf(1)} }
