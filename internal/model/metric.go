package model

// Period labels used by the ILD and scenario views.
const (
	Period202412 = "202412"
	Period202506 = "202506"
)

// PeriodRWA holds the rwa_x value of a metric for one reporting period.
type PeriodRWA struct {
	RWAX float64 `json:"rwa_x" parquet:"rwa_x"`
}

// Metric is one fitted distribution candidate for an ILD plot.
// Values are synthetic; see internal/generator.
type Metric struct {
	ID           int                  `json:"id"`
	Distribution string               `json:"distribution"`
	Percentile   int                  `json:"percentile"`
	RWAX         float64              `json:"rwa_x"`
	AIC          float64              `json:"aic"`
	Lambda       float64              `json:"lambda"`
	Periods      map[string]PeriodRWA `json:"periods"`
}

// PeriodChange is the percentage change of rwa_x between the two reporting periods.
func (m Metric) PeriodChange() float64 {
	return PercentageChange(m.Periods[Period202506].RWAX, m.Periods[Period202412].RWAX)
}

// SelectedMetric records that metric MetricID was chosen for ILD plot ILDID.
type SelectedMetric struct {
	ILDID    int `json:"ildId"`
	MetricID int `json:"metricId"`
}
