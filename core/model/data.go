package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ProbabilityTolerance bounds how far the scenario probabilities may drift
// from 1 before the configuration is rejected.
const ProbabilityTolerance = 1e-6

// ScenarioData is the immutable lookup table of planning parameters. It is
// built once by NewScenarioData and only read afterwards.
type ScenarioData struct {
	regions      []Region
	technologies []Technology
	scenarios    []ScenarioID

	cost        map[Technology]float64
	probability map[ScenarioID]float64
	demand      map[ScenarioID]map[Region]float64
	capacity    map[ScenarioID]map[Region]map[Technology]float64
}

type validator struct {
	errs []error
}

func (v *validator) addf(key, format string, args ...any) {
	v.errs = append(v.errs, &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) quantity(key string, val float64) {
	switch {
	case math.IsNaN(val) || math.IsInf(val, 0):
		v.addf(key, "must be finite, got %v", val)
	case val < 0:
		v.addf(key, "must be non-negative, got %v", val)
	}
}

// NewScenarioData validates in and returns a frozen copy of it. Every
// violation is reported; the returned error matches ErrInvalidConfig.
func NewScenarioData(in Input) (*ScenarioData, error) {
	v := &validator{}
	d := &ScenarioData{
		cost:        make(map[Technology]float64, len(in.Technologies)),
		probability: make(map[ScenarioID]float64, len(in.Scenarios)),
		demand:      make(map[ScenarioID]map[Region]float64, len(in.Scenarios)),
		capacity:    make(map[ScenarioID]map[Region]map[Technology]float64, len(in.Scenarios)),
	}

	if len(in.Regions) == 0 {
		v.addf("regions", "at least one region is required")
	}
	regionSet := make(map[Region]bool, len(in.Regions))
	for i, r := range in.Regions {
		key := fmt.Sprintf("regions[%d]", i)
		if r == "" {
			v.addf(key, "empty region name")
			continue
		}
		if regionSet[r] {
			v.addf(key, "duplicate region %q", r)
			continue
		}
		regionSet[r] = true
		d.regions = append(d.regions, r)
	}

	if len(in.Technologies) == 0 {
		v.addf("technologies", "at least one technology is required")
	}
	for i, t := range in.Technologies {
		if t.Name == "" {
			v.addf(fmt.Sprintf("technologies[%d]", i), "empty technology name")
			continue
		}
		if _, ok := d.cost[t.Name]; ok {
			v.addf(fmt.Sprintf("technologies[%d]", i), "duplicate technology %q", t.Name)
			continue
		}
		v.quantity(fmt.Sprintf("technologies.%s.cost", t.Name), t.Cost)
		d.cost[t.Name] = t.Cost
		d.technologies = append(d.technologies, t.Name)
	}

	if len(in.Scenarios) == 0 {
		v.addf("scenarios", "at least one scenario is required")
	}
	probs := make([]float64, 0, len(in.Scenarios))
	for i, s := range in.Scenarios {
		if s.Name == "" {
			v.addf(fmt.Sprintf("scenarios[%d]", i), "empty scenario name")
			continue
		}
		if _, ok := d.probability[s.Name]; ok {
			v.addf(fmt.Sprintf("scenarios[%d]", i), "duplicate scenario %q", s.Name)
			continue
		}
		prefix := fmt.Sprintf("scenarios.%s", s.Name)
		if math.IsNaN(s.Probability) || s.Probability <= 0 || s.Probability > 1 {
			v.addf(prefix+".probability", "must be in (0,1], got %v", s.Probability)
		}
		d.probability[s.Name] = s.Probability
		probs = append(probs, s.Probability)
		d.scenarios = append(d.scenarios, s.Name)

		d.demand[s.Name] = v.demand(prefix, s.Demand, d.regions, regionSet)
		d.capacity[s.Name] = v.capacity(prefix, s.Capacity, d.regions, regionSet, d.technologies, d.cost)
	}
	if len(probs) > 0 {
		if sum := floats.Sum(probs); math.Abs(sum-1) > ProbabilityTolerance {
			v.addf("scenarios.probability", "probabilities must sum to 1, got %v", sum)
		}
	}

	if len(v.errs) > 0 {
		return nil, errors.Join(v.errs...)
	}
	return d, nil
}

func (v *validator) demand(prefix string, in map[Region]float64, regions []Region, known map[Region]bool) map[Region]float64 {
	out := make(map[Region]float64, len(regions))
	for r := range in {
		if !known[r] {
			v.addf(fmt.Sprintf("%s.demand.%s", prefix, r), "undeclared region")
		}
	}
	for _, r := range regions {
		key := fmt.Sprintf("%s.demand.%s", prefix, r)
		val, ok := in[r]
		if !ok {
			v.addf(key, "missing demand")
			continue
		}
		v.quantity(key, val)
		out[r] = val
	}
	return out
}

func (v *validator) capacity(prefix string, in map[Region]map[Technology]float64, regions []Region, knownRegions map[Region]bool, techs []Technology, knownTechs map[Technology]float64) map[Region]map[Technology]float64 {
	out := make(map[Region]map[Technology]float64, len(regions))
	for r, byTech := range in {
		if !knownRegions[r] {
			v.addf(fmt.Sprintf("%s.capacity.%s", prefix, r), "undeclared region")
			continue
		}
		for t := range byTech {
			if _, ok := knownTechs[t]; !ok {
				v.addf(fmt.Sprintf("%s.capacity.%s.%s", prefix, r, t), "undeclared technology")
			}
		}
	}
	for _, r := range regions {
		out[r] = make(map[Technology]float64, len(techs))
		for _, t := range techs {
			key := fmt.Sprintf("%s.capacity.%s.%s", prefix, r, t)
			val, ok := in[r][t]
			if !ok {
				v.addf(key, "missing capacity")
				continue
			}
			v.quantity(key, val)
			out[r][t] = val
		}
	}
	return out
}

// Regions returns the regions in declaration order.
func (d *ScenarioData) Regions() []Region { return append([]Region(nil), d.regions...) }

// Technologies returns the technologies in declaration order.
func (d *ScenarioData) Technologies() []Technology {
	return append([]Technology(nil), d.technologies...)
}

// Scenarios returns the scenarios in declaration order.
func (d *ScenarioData) Scenarios() []ScenarioID { return append([]ScenarioID(nil), d.scenarios...) }

// Cost returns the unit generation cost of t.
func (d *ScenarioData) Cost(t Technology) (float64, error) {
	c, ok := d.cost[t]
	if !ok {
		return 0, unknownKey(fmt.Sprintf("technologies.%s.cost", t))
	}
	return c, nil
}

// Probability returns the probability of s.
func (d *ScenarioData) Probability(s ScenarioID) (float64, error) {
	p, ok := d.probability[s]
	if !ok {
		return 0, unknownKey(fmt.Sprintf("scenarios.%s.probability", s))
	}
	return p, nil
}

// Demand returns the demand of region r in scenario s.
func (d *ScenarioData) Demand(s ScenarioID, r Region) (float64, error) {
	val, ok := d.demand[s][r]
	if !ok {
		return 0, unknownKey(fmt.Sprintf("scenarios.%s.demand.%s", s, r))
	}
	return val, nil
}

// Capacity returns the generation limit of technology t in region r under
// scenario s.
func (d *ScenarioData) Capacity(s ScenarioID, r Region, t Technology) (float64, error) {
	val, ok := d.capacity[s][r][t]
	if !ok {
		return 0, unknownKey(fmt.Sprintf("scenarios.%s.capacity.%s.%s", s, r, t))
	}
	return val, nil
}
