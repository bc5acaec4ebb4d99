package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/energyplan/core/planning"
	coresolver "github.com/kilianp07/energyplan/core/solver"
	"github.com/kilianp07/energyplan/infra/logger"
)

const (
	// DefaultTolerance is passed to lp.Simplex when none is configured.
	DefaultTolerance = 1e-7
	// boundSlack is how far a solved value may sit outside its bounds before
	// it is reported as is instead of being clamped back.
	boundSlack = 1e-6
)

// Simplex solves planning models with gonum's simplex implementation.
type Simplex struct {
	Tolerance float64
	log       logger.Logger
}

// NewSimplex returns a Simplex backend. A non-positive tolerance selects
// DefaultTolerance and a nil logger discards output.
func NewSimplex(tolerance float64, log logger.Logger) *Simplex {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Simplex{Tolerance: tolerance, log: log}
}

// simplexSolve points to the function used to solve the standard-form LP. It
// can be overridden in tests to simulate solver failures.
var simplexSolve = lp.Simplex

// column is a standard-form column contributing sign·x to a model variable.
type column struct {
	index int
	sign  float64
}

// mapping recovers a model variable as offset + Σ sign·x[index].
type mapping struct {
	v      planning.Variable
	offset float64
	cols   []column
}

// standardForm is min cᵀx s.t. A x = b, x ≥ 0. Variables bounded below keep a
// single shifted column; only free variables are split into x⁺ − x⁻. Every
// inequality row carries its own slack column.
type standardForm struct {
	vars      []mapping
	c         []float64
	a         *mat.Dense
	b         []float64
	constant  float64
	split     int
	unbounded bool
}

type stdRow struct {
	coefs map[int]float64
	sense planning.Sense
	rhs   float64
}

func toStandardForm(m *planning.Model) standardForm {
	vars := m.Variables()
	used := make(map[planning.VarID]bool, len(vars))
	for _, con := range m.Constraints() {
		for id, coef := range con.LHS {
			if coef != 0 {
				used[id] = true
			}
		}
	}
	obj := m.Objective()

	sf := standardForm{vars: make([]mapping, len(vars))}
	var rows []stdRow
	next := 0
	newCol := func(sign float64) column {
		c := column{index: next, sign: sign}
		next++
		return c
	}
	for i, v := range vars {
		mp := mapping{v: v}
		lowerInf, upperInf := math.IsInf(v.Lower, -1), math.IsInf(v.Upper, 1)
		if !used[v.ID] {
			// gonum rejects all-zero columns, so an unconstrained variable is
			// pinned at whichever bound the objective pushes it to.
			if off, ok := restingPoint(v, obj[v.ID]); ok {
				mp.offset = off
			} else {
				sf.unbounded = true
			}
			sf.vars[i] = mp
			continue
		}
		switch {
		case !lowerInf:
			mp.offset = v.Lower
			mp.cols = []column{newCol(1)}
			if !upperInf {
				rows = append(rows, stdRow{
					coefs: map[int]float64{mp.cols[0].index: 1},
					sense: planning.LessEq,
					rhs:   v.Upper - v.Lower,
				})
			}
		case !upperInf:
			mp.offset = v.Upper
			mp.cols = []column{newCol(-1)}
		default:
			mp.cols = []column{newCol(1), newCol(-1)}
			sf.split++
		}
		sf.vars[i] = mp
	}

	index := make(map[planning.VarID]int, len(vars))
	for i, v := range vars {
		index[v.ID] = i
	}
	var conRows []stdRow
	for _, con := range m.Constraints() {
		r := stdRow{coefs: make(map[int]float64, len(con.LHS)), sense: con.Sense, rhs: con.RHS}
		for id, coef := range con.LHS {
			mp := sf.vars[index[id]]
			r.rhs -= coef * mp.offset
			for _, col := range mp.cols {
				r.coefs[col.index] += coef * col.sign
			}
		}
		conRows = append(conRows, r)
	}
	rows = append(conRows, rows...)

	structural := next
	nRows := len(rows)
	nCols := structural + nRows
	sf.c = make([]float64, nCols)
	for id, coef := range obj {
		mp := sf.vars[index[id]]
		sf.constant += coef * mp.offset
		for _, col := range mp.cols {
			sf.c[col.index] += coef * col.sign
		}
	}

	sf.a = mat.NewDense(nRows, nCols, nil)
	sf.b = make([]float64, nRows)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, coef := range r.coefs {
			sf.a.Set(i, j, sign*coef)
		}
		slack := 1.0
		if r.sense == planning.GreaterEq {
			slack = -1
		}
		sf.a.Set(i, structural+i, sign*slack)
		sf.b[i] = sign * r.rhs
	}
	return sf
}

// restingPoint is where a variable absent from every constraint settles
// under objective coefficient cost. ok is false when no bound stops it.
func restingPoint(v planning.Variable, cost float64) (float64, bool) {
	lowerInf, upperInf := math.IsInf(v.Lower, -1), math.IsInf(v.Upper, 1)
	switch {
	case cost > 0:
		return v.Lower, !lowerInf
	case cost < 0:
		return v.Upper, !upperInf
	case !lowerInf:
		return v.Lower, true
	case !upperInf:
		return v.Upper, true
	default:
		return 0, true
	}
}

// values maps a standard-form solution back onto the model variables.
func (sf standardForm) values(x []float64) map[planning.VarID]float64 {
	out := make(map[planning.VarID]float64, len(sf.vars))
	for _, mp := range sf.vars {
		val := mp.offset
		for _, col := range mp.cols {
			val += col.sign * x[col.index]
		}
		out[mp.v.ID] = clamp(val, mp.v)
	}
	return out
}

func statusFor(err error) coresolver.Status {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return coresolver.StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return coresolver.StatusUnbounded
	default:
		return coresolver.StatusError
	}
}

// Solve converts m to standard form and runs the simplex method. Variables
// bounded below are shifted onto a single column and only free variables are
// split, so the standard form has no zero-cost recession directions beyond
// those of the model itself.
func (s *Simplex) Solve(ctx context.Context, m *planning.Model) (res coresolver.Result, err error) {
	if m == nil {
		return coresolver.Result{}, coresolver.ErrNilModel
	}
	if err := ctx.Err(); err != nil {
		return coresolver.Result{}, err
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = coresolver.Result{Status: coresolver.StatusError, Message: fmt.Sprintf("simplex panic: %v", r)}
			err = nil
		}
		res.Duration = time.Since(start)
	}()

	sf := toStandardForm(m)
	rows, cols := sf.a.Dims()
	s.log.Debugw("solving", map[string]any{
		"model":     m.Name(),
		"variables": len(sf.vars),
		"split":     sf.split,
		"rows":      rows,
		"columns":   cols,
	})

	if sf.unbounded {
		s.log.Warnf("simplex %s: unconstrained variable with nonzero cost", coresolver.StatusUnbounded)
		return coresolver.Result{Status: coresolver.StatusUnbounded, Message: "unconstrained variable with nonzero cost"}, nil
	}

	optF, optX, serr := simplexSolve(sf.c, sf.a, sf.b, s.Tolerance, nil)
	if serr != nil {
		st := statusFor(serr)
		s.log.Warnf("simplex %s: %v", st, serr)
		return coresolver.Result{Status: st, Message: serr.Error()}, nil
	}

	objective := optF + sf.constant
	s.log.Infof("simplex optimal objective=%.6f", objective)
	return coresolver.Result{Status: coresolver.StatusOptimal, Objective: objective, Values: sf.values(optX)}, nil
}

func clamp(val float64, v planning.Variable) float64 {
	if val < v.Lower && v.Lower-val <= boundSlack {
		return v.Lower
	}
	if val > v.Upper && val-v.Upper <= boundSlack {
		return v.Upper
	}
	return val
}
