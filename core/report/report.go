// Package report turns a solved planning model into a per-scenario summary
// of generation, trade and cost. It only reads solved values.
package report

import (
	"time"

	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/planning"
	"github.com/kilianp07/energyplan/core/solver"
)

// NoSolutionMessage is reported when the solver did not find an optimum.
const NoSolutionMessage = "No optimal solution found."

// Generation is the output of one technology in one region.
type Generation struct {
	Region     model.Region     `json:"region" yaml:"region"`
	Technology model.Technology `json:"technology" yaml:"technology"`
	MW         float64          `json:"mw" yaml:"mw"`
}

// Flow is the energy moved from one region to another.
type Flow struct {
	From model.Region `json:"from" yaml:"from"`
	To   model.Region `json:"to" yaml:"to"`
	MW   float64      `json:"mw" yaml:"mw"`
}

// Scenario is the plan for a single scenario.
type Scenario struct {
	Name        model.ScenarioID `json:"name" yaml:"name"`
	Probability float64          `json:"probability" yaml:"probability"`
	Generation  []Generation     `json:"generation" yaml:"generation"`
	Trade       []Flow           `json:"trade" yaml:"trade"`
	Cost        float64          `json:"cost" yaml:"cost"`
	Excess      float64          `json:"excess" yaml:"excess"`
}

// Report is the human facing result of a run.
type Report struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Model     string        `json:"model" yaml:"model"`
	Status    solver.Status `json:"status" yaml:"status"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	Beta      float64       `json:"beta" yaml:"beta"`
	Kappa     float64       `json:"kappa" yaml:"kappa"`
	Currency  string        `json:"currency" yaml:"currency"`
	Unit      string        `json:"unit" yaml:"unit"`
	SolvedAt  time.Time     `json:"solved_at" yaml:"solved_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Objective float64       `json:"objective" yaml:"objective"`
	// ExpectedCost is the probability weighted operating cost.
	ExpectedCost float64 `json:"expected_cost" yaml:"expected_cost"`
	// RiskCost is the CVaR term of the objective.
	RiskCost  float64    `json:"risk_cost" yaml:"risk_cost"`
	VaR       float64    `json:"var" yaml:"var"`
	Scenarios []Scenario `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// Meta carries presentation details that are not part of the model.
type Meta struct {
	RunID    string
	Currency string
	Unit     string
	SolvedAt time.Time
}

// Optimal reports whether the report carries a solution.
func (r Report) Optimal() bool { return r.Status == solver.StatusOptimal }

// New builds the report for res. Non-optimal results only carry the status
// and NoSolutionMessage.
func New(data *model.ScenarioData, m *planning.Model, res solver.Result, meta Meta) Report {
	if meta.Currency == "" {
		meta.Currency = "EUR"
	}
	if meta.Unit == "" {
		meta.Unit = "MW"
	}
	rep := Report{
		RunID:    meta.RunID,
		Model:    m.Name(),
		Status:   res.Status,
		Beta:     m.Beta(),
		Kappa:    m.Kappa(),
		Currency: meta.Currency,
		Unit:     meta.Unit,
		SolvedAt: meta.SolvedAt,
		Duration: res.Duration,
	}
	if !res.Optimal() {
		rep.Message = NoSolutionMessage
		if res.Message != "" {
			rep.Message += " " + res.Message
		}
		return rep
	}

	rep.Objective = res.Objective
	rep.VaR = res.Value(planning.ThresholdVar())
	regions := data.Regions()
	techs := data.Technologies()
	for _, s := range data.Scenarios() {
		p, _ := data.Probability(s)
		sc := Scenario{Name: s, Probability: p, Excess: res.Value(planning.ExcessVar(s))}
		for _, r := range regions {
			for _, t := range techs {
				sc.Generation = append(sc.Generation, Generation{
					Region:     r,
					Technology: t,
					MW:         res.Value(planning.GenerationVar(r, t, s)),
				})
			}
		}
		for _, from := range regions {
			for _, to := range regions {
				if from == to {
					continue
				}
				sc.Trade = append(sc.Trade, Flow{From: from, To: to, MW: res.Value(planning.TradeVar(from, to, s))})
			}
		}
		if cost, ok := m.ScenarioCost(s); ok {
			sc.Cost = cost.Eval(res.Values)
		}
		rep.ExpectedCost += p * sc.Cost
		rep.Scenarios = append(rep.Scenarios, sc)
	}
	rep.RiskCost = rep.Objective - rep.ExpectedCost
	return rep
}

// ScenarioCosts maps each scenario to its realised cost.
func (r Report) ScenarioCosts() map[model.ScenarioID]float64 {
	out := make(map[model.ScenarioID]float64, len(r.Scenarios))
	for _, s := range r.Scenarios {
		out[s.Name] = s.Cost
	}
	return out
}
