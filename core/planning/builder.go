package planning

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/energyplan/core/model"
)

var (
	// ErrInvalidBeta is returned when beta lies outside [0,1).
	ErrInvalidBeta = errors.New("beta must be in [0,1)")
	// ErrInvalidKappa is returned for a negative or non-finite trade cost.
	ErrInvalidKappa = errors.New("kappa must be finite and non-negative")
	// ErrNilData is returned when Build is called without scenario data.
	ErrNilData = errors.New("scenario data is nil")
)

// DefaultModelName names models built without an explicit name.
const DefaultModelName = "StochasticCVaREnergyPlanning"

// Params holds the scalar inputs of the model.
type Params struct {
	// Beta is the CVaR confidence level; 1−Beta is the tail mass.
	Beta float64
	// Kappa is the cost per MW traded between two regions.
	Kappa float64
	// Workers bounds how many scenarios are assembled concurrently.
	// Zero uses GOMAXPROCS.
	Workers int
	Name    string
}

// Validate checks Beta and Kappa.
func (p Params) Validate() error {
	if math.IsNaN(p.Beta) || p.Beta < 0 || p.Beta >= 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidBeta, p.Beta)
	}
	if math.IsNaN(p.Kappa) || math.IsInf(p.Kappa, 0) || p.Kappa < 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidKappa, p.Kappa)
	}
	return nil
}

// RiskWeight returns 1/(1−Beta).
func (p Params) RiskWeight() float64 { return 1 / (1 - p.Beta) }

type fragment struct {
	vars        []Variable
	constraints []Constraint
	objective   Expr
	cost        Expr
}

// Build assembles the model for data. It has no side effects and the result
// does not depend on Workers.
func Build(data *model.ScenarioData, p Params) (*Model, error) {
	if data == nil {
		return nil, ErrNilData
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	name := p.Name
	if name == "" {
		name = DefaultModelName
	}

	scenarios := data.Scenarios()
	frags := make([]fragment, len(scenarios))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, s := range scenarios {
		g.Go(func() error {
			f, err := buildScenario(data, s, p.Kappa, p.RiskWeight())
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s, err)
			}
			frags[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Model{
		name:        name,
		beta:        p.Beta,
		kappa:       p.Kappa,
		vars:        make(map[VarID]Variable),
		objective:   make(Expr),
		constraints: make(map[ConstraintKey]Constraint),
		costs:       make(map[model.ScenarioID]Expr, len(scenarios)),
	}
	eta := ThresholdVar()
	m.vars[eta] = free(eta)
	m.objective.Add(eta, p.RiskWeight())

	for i, f := range frags {
		for _, v := range f.vars {
			if _, dup := m.vars[v.ID]; dup {
				return nil, fmt.Errorf("duplicate variable %s", v.ID)
			}
			m.vars[v.ID] = v
		}
		for _, c := range f.constraints {
			if _, dup := m.constraints[c.Key]; dup {
				return nil, fmt.Errorf("duplicate constraint %s", c.Key)
			}
			m.constraints[c.Key] = c
		}
		m.objective.AddExpr(f.objective, 1)
		m.costs[scenarios[i]] = f.cost
	}
	return m, nil
}

// buildScenario creates every variable and constraint indexed by s.
func buildScenario(data *model.ScenarioData, s model.ScenarioID, kappa, riskWeight float64) (fragment, error) {
	regions := data.Regions()
	techs := data.Technologies()
	prob, err := data.Probability(s)
	if err != nil {
		return fragment{}, err
	}

	f := fragment{objective: make(Expr), cost: make(Expr)}
	for _, r := range regions {
		for _, t := range techs {
			c, err := data.Cost(t)
			if err != nil {
				return fragment{}, err
			}
			id := GenerationVar(r, t, s)
			f.vars = append(f.vars, nonNegative(id))
			f.cost.Add(id, c)
		}
	}
	for _, from := range regions {
		for _, to := range regions {
			if from == to {
				continue
			}
			id := TradeVar(from, to, s)
			f.vars = append(f.vars, nonNegative(id))
			f.cost.Add(id, kappa)
		}
	}
	z := ExcessVar(s)
	f.vars = append(f.vars, nonNegative(z))

	f.objective.AddExpr(f.cost, prob)
	f.objective.Add(z, riskWeight*prob)

	for _, r := range regions {
		d, err := data.Demand(s, r)
		if err != nil {
			return fragment{}, err
		}
		lhs := make(Expr)
		for _, t := range techs {
			lhs.Add(GenerationVar(r, t, s), 1)
		}
		for _, other := range regions {
			if other == r {
				continue
			}
			lhs.Add(TradeVar(other, r, s), 1)
			lhs.Add(TradeVar(r, other, s), -1)
		}
		f.constraints = append(f.constraints, Constraint{
			Key:   ConstraintKey{Kind: Demand, Scenario: s, Region: r},
			LHS:   lhs,
			Sense: GreaterEq,
			RHS:   d,
		})

		for _, t := range techs {
			e, err := data.Capacity(s, r, t)
			if err != nil {
				return fragment{}, err
			}
			f.constraints = append(f.constraints, Constraint{
				Key:   ConstraintKey{Kind: Capacity, Scenario: s, Region: r, Technology: t},
				LHS:   Expr{GenerationVar(r, t, s): 1},
				Sense: LessEq,
				RHS:   e,
			})
		}
	}

	// z[s] >= cost_s - eta
	lhs := Expr{z: 1, ThresholdVar(): 1}
	lhs.AddExpr(f.cost, -1)
	f.constraints = append(f.constraints, Constraint{
		Key:   ConstraintKey{Kind: CVaR, Scenario: s},
		LHS:   lhs,
		Sense: GreaterEq,
		RHS:   0,
	})
	return f, nil
}
