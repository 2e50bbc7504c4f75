package model

// Distribution family codes carried by every scenario.
const (
	DistLogn = "logn"
	DistPar  = "par"
)

// ScenarioPeriod is the fitted value and rwa_x of one distribution in one period.
type ScenarioPeriod struct {
	FVal float64 `json:"fval"`
	RWAX float64 `json:"rwa_x"`
}

type ScenarioDistribution struct {
	Type    string                    `json:"type"`
	Params  [2]float64                `json:"params"`
	Periods map[string]ScenarioPeriod `json:"periods"`
}

// ScenarioDistributions holds the two competing fits of a scenario.
type ScenarioDistributions struct {
	Logn ScenarioDistribution `json:"logn"`
	Par  ScenarioDistribution `json:"par"`
}

// Scenario is one business scenario with its logn and par fits.
type Scenario struct {
	ID            int                   `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	Distributions ScenarioDistributions `json:"distributions"`
}
