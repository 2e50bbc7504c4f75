package generator

import "capital-risk/internal/model"

// Distribution families and percentiles covered by Metrics.
var (
	Distributions      = []string{"lognm", "parm", "gamm", "invgm", "wblm"}
	ExtraDistributions = []string{"expn", "norm", "gev", "gpd"}
	Percentiles        = []int{85, 90, 95, 100}
)

const (
	// MetricsPerPlot is the number of candidate fits generated for one ILD plot.
	MetricsPerPlot = 28
	extraMetrics   = 8
)

// Metrics generates the candidate fits for an ILD plot: every family in
// Distributions at every percentile, followed by eight extra fits cycling
// through ExtraDistributions. Metric ids start at 1.
func Metrics(ildID int) []model.Metric {
	src := newSource(ildID, saltMetrics)
	out := make([]model.Metric, 0, MetricsPerPlot)
	id := 1

	for _, dist := range Distributions {
		for _, pct := range Percentiles {
			out = append(out, newMetric(src, ildID, id, dist, pct))
			id++
		}
	}
	for i := 0; i < extraMetrics; i++ {
		dist := ExtraDistributions[i%len(ExtraDistributions)]
		pct := Percentiles[i%len(Percentiles)]
		out = append(out, newMetric(src, ildID, id, dist, pct))
		id++
	}
	return out
}

// Metric returns a single generated metric of an ILD plot.
func Metric(ildID, metricID int) (model.Metric, bool) {
	for _, m := range Metrics(ildID) {
		if m.ID == metricID {
			return m, true
		}
	}
	return model.Metric{}, false
}

func newMetric(src *source, ildID, id int, dist string, pct int) model.Metric {
	seed := ildID*100 + id

	base := src.uniform(0.5, 2.5) + offset(seed, 10, 10)
	p202412 := base * (1 - src.uniform(-0.1, 0.15))
	p202506 := base * (1 + src.uniform(-0.05, 0.2))

	return model.Metric{
		ID:           id,
		Distribution: dist,
		Percentile:   pct,
		RWAX:         base,
		AIC:          src.uniform(100, 500) + offset(seed, 100, 1),
		Lambda:       src.uniform(0.01, 0.2) + offset(seed, 5, 100),
		Periods: map[string]model.PeriodRWA{
			model.Period202412: {RWAX: p202412},
			model.Period202506: {RWAX: p202506},
		},
	}
}
