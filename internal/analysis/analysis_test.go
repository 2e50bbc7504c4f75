package analysis

import (
	"testing"

	"capital-risk/internal/generator"
	"capital-risk/internal/model"
	"capital-risk/internal/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotSummaries(t *testing.T) {
	plots := PlotSummaries(9, []model.SelectedMetric{
		{ILDID: 2, MetricID: 5},
		{ILDID: 4, MetricID: 999},
	})
	require.Len(t, plots, 9)
	assert.Equal(t, "ILD Plot 1", plots[0].Title)
	assert.Nil(t, plots[0].Metric)
	assert.Equal(t, model.TrendFlat, plots[0].Trend)

	p := plots[1]
	require.NotNil(t, p.Metric)
	assert.Equal(t, 5, p.Metric.ID)
	want, _ := generator.Metric(2, 5)
	assert.Equal(t, want.PeriodChange(), p.Change)
	assert.Equal(t, model.TrendOf(p.Change), p.Trend)

	assert.Nil(t, plots[3].Metric, "unknown metric id is shown as unselected")
}

func TestDashboardSummary(t *testing.T) {
	items := []model.SelectedItem{
		{ID: 1, Type: model.ItemILD},
		{ID: 2, Type: model.ItemILD},
		{ID: 101, Type: model.ItemScenario},
	}
	s := DashboardSummary(items, []model.SelectedMetric{{ILDID: 1, MetricID: 1}}, selection.DefaultLimits(), 9)
	assert.Equal(t, 2, s.ILDSelected)
	assert.Equal(t, 9, s.ILDLimit)
	assert.Equal(t, 1, s.ScenarioSelected)
	assert.Equal(t, 37, s.ScenarioLimit)
	assert.Equal(t, 1, s.PlotsWithModel)
	require.Len(t, s.Models, 1)
	assert.Equal(t, 1, s.Models[0].ID)
}

func TestCompareScenario(t *testing.T) {
	sc := generator.Scenario(3)
	c := CompareScenario(sc)
	require.Len(t, c.Distributions, 2)
	assert.Equal(t, model.DistLogn, c.Distributions[0].Type)
	assert.Equal(t, model.DistPar, c.Distributions[1].Type)

	logn := sc.Distributions.Logn
	assert.InDelta(t,
		model.PercentageChange(logn.Periods[model.Period202506].FVal, logn.Periods[model.Period202412].FVal),
		c.Distributions[0].FValChange, 1e-9)
}

func TestRankMetrics(t *testing.T) {
	metrics := []model.Metric{
		{ID: 1, AIC: 300, RWAX: 1.0, Lambda: 0.05},
		{ID: 2, AIC: 100, RWAX: 2.0, Lambda: 0.05},
		{ID: 3, AIC: 200, RWAX: 1.5, Lambda: 0.01},
	}

	byAIC, err := RankMetrics(metrics, RankByAIC)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, ids(byAIC))

	byRWAX, err := RankMetrics(metrics, "-"+RankByRWAX)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, ids(byRWAX))

	byLambda, err := RankMetrics(metrics, RankByLambda)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, ids(byLambda))

	same, err := RankMetrics(metrics, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(same))

	_, err = RankMetrics(metrics, "bic")
	assert.Error(t, err)

	assert.Equal(t, 1, metrics[0].ID, "input is not reordered")
}

func ids(ms []model.Metric) []int {
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
