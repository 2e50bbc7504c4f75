// Package analysis derives the dashboard views from generated metrics and
// scenarios and the current selections.
package analysis

import (
	"fmt"

	"capital-risk/internal/generator"
	"capital-risk/internal/model"
	"capital-risk/internal/selection"
)

// PlotSummary is one card of the ILD overview.
type PlotSummary struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Metric      *model.Metric `json:"metric,omitempty"`
	Previous    float64       `json:"previous"`
	Current     float64       `json:"current"`
	Change      float64       `json:"change"`
	Trend       model.Trend   `json:"trend"`
}

// PlotSummaries builds plots 1..nPlots. A plot whose selected metric does not
// exist is shown as unselected.
func PlotSummaries(nPlots int, selections []model.SelectedMetric) []PlotSummary {
	chosen := make(map[int]int, len(selections))
	for _, s := range selections {
		chosen[s.ILDID] = s.MetricID
	}

	out := make([]PlotSummary, 0, nPlots)
	for id := 1; id <= nPlots; id++ {
		p := PlotSummary{
			ID:          id,
			Title:       fmt.Sprintf("ILD Plot %d", id),
			Description: fmt.Sprintf("Analysis and visualization for ILD dataset %d", id),
			Trend:       model.TrendFlat,
		}
		if metricID, ok := chosen[id]; ok {
			if m, found := generator.Metric(id, metricID); found {
				p.Metric = &m
				p.Previous = m.Periods[model.Period202412].RWAX
				p.Current = m.Periods[model.Period202506].RWAX
				p.Change = m.PeriodChange()
				p.Trend = model.TrendOf(p.Change)
			}
		}
		out = append(out, p)
	}
	return out
}

// Summary is the dashboard header: selection counts against their caps.
type Summary struct {
	ILDSelected      int           `json:"ildSelected"`
	ILDLimit         int           `json:"ildLimit"`
	ScenarioSelected int           `json:"scenarioSelected"`
	ScenarioLimit    int           `json:"scenarioLimit"`
	PlotsWithModel   int           `json:"plotsWithModel"`
	Plots            int           `json:"plots"`
	Models           []PlotSummary `json:"models"`
}

// DashboardSummary counts selections and lists the plots that have a model.
func DashboardSummary(items []model.SelectedItem, metrics []model.SelectedMetric, limits selection.Limits, nPlots int) Summary {
	s := Summary{
		ILDLimit:      limits.ILD,
		ScenarioLimit: limits.Scenario,
		Plots:         nPlots,
		Models:        []PlotSummary{},
	}
	for _, it := range items {
		switch it.Type {
		case model.ItemILD:
			s.ILDSelected++
		case model.ItemScenario:
			s.ScenarioSelected++
		}
	}
	for _, p := range PlotSummaries(nPlots, metrics) {
		if p.Metric != nil {
			s.PlotsWithModel++
			s.Models = append(s.Models, p)
		}
	}
	return s
}
