package config

import (
	"fmt"

	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/planning"
)

// PlanningConfig holds the data set and scalar parameters of the model.
type PlanningConfig struct {
	Name         string                  `json:"name"`
	Regions      []model.Region          `json:"regions"`
	Technologies []model.TechnologyInput `json:"technologies"`
	Scenarios    []model.ScenarioInput   `json:"scenarios"`
	// TradeCost is the cost per MW traded between two regions.
	TradeCost float64 `json:"trade_cost"`
	// Beta is the CVaR confidence level. Nil selects the default.
	Beta *float64 `json:"beta"`
	// Workers bounds concurrent scenario assembly; zero uses GOMAXPROCS.
	Workers int `json:"workers"`
}

// DefaultBeta is the confidence level used when none is configured.
const DefaultBeta = model.ReferenceBeta

// ReferencePlanning returns the built-in two-region data set.
func ReferencePlanning() PlanningConfig {
	in := model.ReferenceInput()
	beta := model.ReferenceBeta
	return PlanningConfig{
		Regions:      in.Regions,
		Technologies: in.Technologies,
		Scenarios:    in.Scenarios,
		TradeCost:    model.ReferenceKappa,
		Beta:         &beta,
	}
}

// SetDefaults applies sane defaults.
func (c *PlanningConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = planning.DefaultModelName
	}
	if c.Beta == nil {
		b := DefaultBeta
		c.Beta = &b
	}
}

// Validate checks the scalar parameters. The data set itself is checked
// when it is turned into scenario data.
func (c PlanningConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("planning.workers must be non-negative, got %d", c.Workers)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("planning: %w", err)
	}
	return nil
}

// Empty reports whether no data set is configured.
func (c PlanningConfig) Empty() bool {
	return len(c.Regions) == 0 && len(c.Technologies) == 0 && len(c.Scenarios) == 0
}

// Input returns the raw data set.
func (c PlanningConfig) Input() model.Input {
	return model.Input{
		Regions:      c.Regions,
		Technologies: c.Technologies,
		Scenarios:    c.Scenarios,
	}
}

// Params returns the model parameters.
func (c PlanningConfig) Params() planning.Params {
	beta := DefaultBeta
	if c.Beta != nil {
		beta = *c.Beta
	}
	return planning.Params{
		Beta:    beta,
		Kappa:   c.TradeCost,
		Workers: c.Workers,
		Name:    c.Name,
	}
}
