package planning_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/planning"
	"github.com/kilianp07/energyplan/core/solver"
)

// echoSolver reports the model size instead of solving it.
type echoSolver struct {
	vars, constraints int
}

func (e *echoSolver) Solve(_ context.Context, m *planning.Model) (solver.Result, error) {
	st := m.Stats()
	e.vars, e.constraints = st.Variables, st.Constraints
	return solver.Result{Status: solver.StatusOptimal, Objective: float64(st.Constraints)}, nil
}

func TestBuiltModelHandedToInjectedSolver(t *testing.T) {
	data, err := model.NewScenarioData(model.ReferenceInput())
	require.NoError(t, err)
	m, err := planning.Build(data, planning.Params{Beta: 0.95, Kappa: 20})
	require.NoError(t, err)

	var s solver.Solver = &echoSolver{}
	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 21.0, res.Objective)
	assert.Equal(t, 22, s.(*echoSolver).vars)
}

func TestBuild_ScalesWithInput(t *testing.T) {
	in := model.Input{
		Regions:      []model.Region{"north", "south", "east"},
		Technologies: []model.TechnologyInput{{Name: "wind", Cost: 5}, {Name: "gas", Cost: 70}, {Name: "coal", Cost: 90}, {Name: "hydro", Cost: 10}},
	}
	for _, name := range []model.ScenarioID{"s1", "s2"} {
		sc := model.ScenarioInput{Name: name, Probability: 0.5, Demand: map[model.Region]float64{}, Capacity: map[model.Region]map[model.Technology]float64{}}
		for _, r := range in.Regions {
			sc.Demand[r] = 10
			sc.Capacity[r] = map[model.Technology]float64{"wind": 1, "gas": 2, "coal": 3, "hydro": 4}
		}
		in.Scenarios = append(in.Scenarios, sc)
	}
	data, err := model.NewScenarioData(in)
	require.NoError(t, err)
	m, err := planning.Build(data, planning.Params{Beta: 0.9, Kappa: 1, Workers: 2})
	require.NoError(t, err)

	st := m.Stats()
	// x: 3*4*2, y: 3*2*2, eta, z: 2
	assert.Equal(t, 24+12+1+2, st.Variables)
	// demand: 3*2, capacity: 3*4*2, cvar: 2
	assert.Equal(t, 6+24+2, st.Constraints)
}
