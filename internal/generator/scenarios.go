package generator

import (
	"fmt"
	"strings"

	"capital-risk/internal/model"
)

// DefaultScenarioCount is the number of scenarios shown on the scenarios page.
const DefaultScenarioCount = 48

// Scenarios generates scenarios 1..n.
func Scenarios(n int) []model.Scenario {
	if n < 0 {
		n = 0
	}
	out := make([]model.Scenario, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Scenario(i))
	}
	return out
}

// Scenario generates one scenario with its logn and par fits.
func Scenario(id int) model.Scenario {
	src := newSource(id, saltScenarios)
	category := model.Categories[mod(id, len(model.Categories))]
	seed := id * 100

	lognParams := [2]float64{round(src.uniform(10, 50)), round(src.uniform(40, 90))}
	lognRWAX := src.uniform(0.5, 2.5) + offset(seed, 10, 10)
	lognFVal := src.uniform(50, 200) + offset(seed, 50, 1)

	parParams := [2]float64{round(src.uniform(5, 30)), round(src.uniform(30, 80))}
	parRWAX := src.uniform(0.5, 2.5) + offset(seed, 10, 10)
	parFVal := src.uniform(50, 200) + offset(seed, 50, 1)

	return model.Scenario{
		ID:          id,
		Title:       fmt.Sprintf("Scenario %d", id),
		Description: fmt.Sprintf("Analysis for %s scenario %d", strings.ToLower(category), id),
		Category:    category,
		Distributions: model.ScenarioDistributions{
			Logn: scenarioDistribution(src, model.DistLogn, lognParams, lognFVal, lognRWAX),
			Par:  scenarioDistribution(src, model.DistPar, parParams, parFVal, parRWAX),
		},
	}
}

// ScenarioByID returns scenario id if it lies within the first n scenarios.
func ScenarioByID(id, n int) (model.Scenario, bool) {
	if id < 1 || id > n {
		return model.Scenario{}, false
	}
	return Scenario(id), true
}

func scenarioDistribution(src *source, typ string, params [2]float64, fval, rwax float64) model.ScenarioDistribution {
	return model.ScenarioDistribution{
		Type:   typ,
		Params: params,
		Periods: map[string]model.ScenarioPeriod{
			model.Period202412: {
				FVal: fval * (1 - src.uniform(-0.05, 0.1)),
				RWAX: rwax * (1 - src.uniform(-0.05, 0.1)),
			},
			model.Period202506: {
				FVal: fval * (1 + src.uniform(-0.05, 0.15)),
				RWAX: rwax * (1 + src.uniform(-0.05, 0.15)),
			},
		},
	}
}

// mod is a non-negative modulo so negative ids still map onto a category.
func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
