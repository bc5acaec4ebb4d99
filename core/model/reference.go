package model

// ReferenceInput returns the two-region, two-technology data set with a low,
// medium and high demand scenario.
//
//	Low:    low demand, high capacity    (p=0.2)
//	Medium: medium demand and capacity   (p=0.5)
//	High:   high demand, low capacity    (p=0.3)
func ReferenceInput() Input {
	return Input{
		Regions: []Region{"Region1", "Region2"},
		Technologies: []TechnologyInput{
			{Name: "Tech1", Cost: 60},
			{Name: "Tech2", Cost: 30},
		},
		Scenarios: []ScenarioInput{
			{
				Name:        "Low",
				Probability: 0.2,
				Demand:      map[Region]float64{"Region1": 70, "Region2": 90},
				Capacity: map[Region]map[Technology]float64{
					"Region1": {"Tech1": 70, "Tech2": 90},
					"Region2": {"Tech1": 80, "Tech2": 100},
				},
			},
			{
				Name:        "Medium",
				Probability: 0.5,
				Demand:      map[Region]float64{"Region1": 100, "Region2": 100},
				Capacity: map[Region]map[Technology]float64{
					"Region1": {"Tech1": 70, "Tech2": 40},
					"Region2": {"Tech1": 80, "Tech2": 80},
				},
			},
			{
				Name:        "High",
				Probability: 0.3,
				Demand:      map[Region]float64{"Region1": 120, "Region2": 160},
				Capacity: map[Region]map[Technology]float64{
					"Region1": {"Tech1": 90, "Tech2": 50},
					"Region2": {"Tech1": 80, "Tech2": 60},
				},
			},
		},
	}
}

// Reference trade cost and risk level paired with ReferenceInput.
const (
	ReferenceKappa = 20.0
	ReferenceBeta  = 0.95
)
