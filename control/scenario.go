package control

import "smartstay-cli/api"

type Scenario struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var Scenarios = []Scenario{
	{
		ID:          1,
		Name:        api.ScenarioOptimization,
		Title:       "Run Optimization Test",
		Description: "Verifies complex clustering (F1)",
	},
	{
		ID:          2,
		Name:        api.ScenarioConstraint,
		Title:       "Run Constraint Test",
		Description: "Verifies skipping rule (Skip F1)",
	},
}

func LookupScenario(id int) (Scenario, bool) {
	for _, scenario := range Scenarios {
		if scenario.ID == id {
			return scenario, true
		}
	}
	return Scenario{}, false
}
