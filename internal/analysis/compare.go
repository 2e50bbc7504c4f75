package analysis

import "capital-risk/internal/model"

// DistributionChange compares one scenario fit across the two periods.
type DistributionChange struct {
	Type         string      `json:"type"`
	Params       [2]float64  `json:"params"`
	RWAXPrevious float64     `json:"rwaxPrevious"`
	RWAXCurrent  float64     `json:"rwaxCurrent"`
	RWAXChange   float64     `json:"rwaxChange"`
	FValPrevious float64     `json:"fvalPrevious"`
	FValCurrent  float64     `json:"fvalCurrent"`
	FValChange   float64     `json:"fvalChange"`
	Trend        model.Trend `json:"trend"`
}

type ScenarioComparison struct {
	ID            int                  `json:"id"`
	Title         string               `json:"title"`
	Category      string               `json:"category"`
	Distributions []DistributionChange `json:"distributions"`
}

// CompareScenario reports the logn and par period changes, in that order.
func CompareScenario(s model.Scenario) ScenarioComparison {
	return ScenarioComparison{
		ID:       s.ID,
		Title:    s.Title,
		Category: s.Category,
		Distributions: []DistributionChange{
			distributionChange(s.Distributions.Logn),
			distributionChange(s.Distributions.Par),
		},
	}
}

func distributionChange(d model.ScenarioDistribution) DistributionChange {
	prev, cur := d.Periods[model.Period202412], d.Periods[model.Period202506]
	c := DistributionChange{
		Type:         d.Type,
		Params:       d.Params,
		RWAXPrevious: prev.RWAX,
		RWAXCurrent:  cur.RWAX,
		RWAXChange:   model.PercentageChange(cur.RWAX, prev.RWAX),
		FValPrevious: prev.FVal,
		FValCurrent:  cur.FVal,
		FValChange:   model.PercentageChange(cur.FVal, prev.FVal),
	}
	c.Trend = model.TrendOf(c.RWAXChange)
	return c
}
