package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScenarioData_Reference(t *testing.T) {
	d, err := NewScenarioData(ReferenceInput())
	require.NoError(t, err)

	assert.Equal(t, []Region{"Region1", "Region2"}, d.Regions())
	assert.Equal(t, []Technology{"Tech1", "Tech2"}, d.Technologies())
	assert.Equal(t, []ScenarioID{"Low", "Medium", "High"}, d.Scenarios())

	c, err := d.Cost("Tech2")
	require.NoError(t, err)
	assert.Equal(t, 30.0, c)

	p, err := d.Probability("Medium")
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)

	dem, err := d.Demand("High", "Region2")
	require.NoError(t, err)
	assert.Equal(t, 160.0, dem)

	capa, err := d.Capacity("Low", "Region2", "Tech2")
	require.NoError(t, err)
	assert.Equal(t, 100.0, capa)
}

func TestScenarioData_UnknownKeys(t *testing.T) {
	d, err := NewScenarioData(ReferenceInput())
	require.NoError(t, err)

	_, err = d.Cost("Nuclear")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = d.Probability("Extreme")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = d.Demand("Low", "Region3")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = d.Capacity("Low", "Region1", "Tech3")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "scenarios.Low.capacity.Region1.Tech3")
}

func TestScenarioData_ReturnsCopies(t *testing.T) {
	d, err := NewScenarioData(ReferenceInput())
	require.NoError(t, err)
	regions := d.Regions()
	regions[0] = "mutated"
	assert.Equal(t, Region("Region1"), d.Regions()[0])
}

func TestNewScenarioData_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *Input)
		key    string
	}{
		{"no regions", func(in *Input) { in.Regions = nil }, "regions"},
		{"duplicate region", func(in *Input) { in.Regions = append(in.Regions, "Region1") }, "regions[2]"},
		{"no technologies", func(in *Input) { in.Technologies = nil }, "technologies"},
		{"negative cost", func(in *Input) { in.Technologies[0].Cost = -1 }, "technologies.Tech1.cost"},
		{"no scenarios", func(in *Input) { in.Scenarios = nil }, "scenarios"},
		{"probability sum", func(in *Input) { in.Scenarios[0].Probability = 0.3 }, "scenarios.probability"},
		{"zero probability", func(in *Input) {
			in.Scenarios[0].Probability = 0
			in.Scenarios[1].Probability = 0.7
		}, "scenarios.Low.probability"},
		{"negative demand", func(in *Input) { in.Scenarios[1].Demand["Region1"] = -5 }, "scenarios.Medium.demand.Region1"},
		{"missing demand", func(in *Input) { delete(in.Scenarios[2].Demand, "Region2") }, "scenarios.High.demand.Region2"},
		{"negative capacity", func(in *Input) { in.Scenarios[0].Capacity["Region1"]["Tech2"] = -1 }, "scenarios.Low.capacity.Region1.Tech2"},
		{"missing capacity", func(in *Input) { delete(in.Scenarios[0].Capacity["Region2"], "Tech1") }, "scenarios.Low.capacity.Region2.Tech1"},
		{"undeclared region", func(in *Input) { in.Scenarios[0].Demand["Region9"] = 1 }, "scenarios.Low.demand.Region9"},
		{"undeclared technology", func(in *Input) { in.Scenarios[0].Capacity["Region1"]["Tech9"] = 1 }, "scenarios.Low.capacity.Region1.Tech9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := ReferenceInput()
			tc.mutate(&in)
			d, err := NewScenarioData(in)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestNewScenarioData_ReportsEveryViolation(t *testing.T) {
	in := ReferenceInput()
	in.Technologies[1].Cost = -3
	in.Scenarios[2].Demand["Region1"] = -1

	_, err := NewScenarioData(in)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "technologies.Tech2.cost")
	assert.Contains(t, err.Error(), "scenarios.High.demand.Region1")
}

func TestNewScenarioData_ToleratesRoundingInProbabilities(t *testing.T) {
	in := ReferenceInput()
	in.Scenarios[0].Probability = 0.1
	in.Scenarios[1].Probability = 0.2
	in.Scenarios[2].Probability = 0.7
	_, err := NewScenarioData(in)
	assert.NoError(t, err)
}
