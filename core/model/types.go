package model

// Region identifies a balancing area that generates, consumes and trades energy.
type Region string

// Technology identifies a generation technology with a fixed unit cost.
type Technology string

// ScenarioID identifies one discrete realization of demand and capacity.
type ScenarioID string

// TechnologyInput declares a technology and its generation cost per MW.
type TechnologyInput struct {
	Name Technology `json:"name" yaml:"name"`
	Cost float64    `json:"cost" yaml:"cost"`
}

// ScenarioInput declares the probability, demand and capacity of a scenario.
type ScenarioInput struct {
	Name        ScenarioID                        `json:"name" yaml:"name"`
	Probability float64                           `json:"probability" yaml:"probability"`
	Demand      map[Region]float64                `json:"demand" yaml:"demand"`
	Capacity    map[Region]map[Technology]float64 `json:"capacity" yaml:"capacity"`
}

// Input is the raw parameter set used to build a ScenarioData.
type Input struct {
	Regions      []Region          `json:"regions" yaml:"regions"`
	Technologies []TechnologyInput `json:"technologies" yaml:"technologies"`
	Scenarios    []ScenarioInput   `json:"scenarios" yaml:"scenarios"`
}
