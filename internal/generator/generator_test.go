package generator

import (
	"fmt"
	"testing"
	"time"

	"capital-risk/internal/filter"
	"capital-risk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCoverVocabulary(t *testing.T) {
	for _, plot := range []int{1, 5, 9, 250, -3} {
		t.Run(fmt.Sprintf("plot %d", plot), func(t *testing.T) {
			metrics := Metrics(plot)
			require.Len(t, metrics, MetricsPerPlot)

			pairs := map[string]bool{}
			for i, m := range metrics {
				assert.Equal(t, i+1, m.ID, "ids are sequential from 1")
				pairs[fmt.Sprintf("%s/%d", m.Distribution, m.Percentile)] = true
				assert.Contains(t, m.Periods, model.Period202412)
				assert.Contains(t, m.Periods, model.Period202506)
			}
			for _, d := range Distributions {
				for _, p := range Percentiles {
					assert.True(t, pairs[fmt.Sprintf("%s/%d", d, p)], "missing %s/%d", d, p)
				}
			}
			for _, d := range ExtraDistributions {
				assert.True(t, pairs[d+"/85"] || pairs[d+"/90"] || pairs[d+"/95"] || pairs[d+"/100"], "missing extra %s", d)
			}
		})
	}
}

func TestMetricsAreReproducible(t *testing.T) {
	assert.Equal(t, Metrics(4), Metrics(4))
	assert.NotEqual(t, Metrics(4)[0].RWAX, Metrics(5)[0].RWAX)
}

func TestMetricRanges(t *testing.T) {
	for _, m := range Metrics(7) {
		seed := 7*100 + m.ID
		off := float64(seed%10) / 10
		assert.GreaterOrEqual(t, m.RWAX, 0.5+off)
		assert.Less(t, m.RWAX, 2.5+off)
		assert.GreaterOrEqual(t, m.AIC, 100+float64(seed%100))
		assert.Less(t, m.AIC, 500+float64(seed%100))
		assert.GreaterOrEqual(t, m.Lambda, 0.01)
		assert.Less(t, m.Lambda, 0.25)
	}
}

func TestMetricLookup(t *testing.T) {
	m, ok := Metric(3, 21)
	require.True(t, ok)
	assert.Equal(t, "expn", m.Distribution)
	assert.Equal(t, 85, m.Percentile)

	_, ok = Metric(3, 29)
	assert.False(t, ok)
}

func TestScenarioShape(t *testing.T) {
	s := Scenario(3)
	assert.Equal(t, "Scenario 3", s.Title)
	assert.Equal(t, "Risk", s.Category)
	assert.Equal(t, "Analysis for risk scenario 3", s.Description)
	assert.Equal(t, model.DistLogn, s.Distributions.Logn.Type)
	assert.Equal(t, model.DistPar, s.Distributions.Par.Type)
	assert.Len(t, s.Distributions.Logn.Periods, 2)
	assert.Len(t, s.Distributions.Par.Periods, 2)
	assert.Equal(t, s, Scenario(3))

	p := s.Distributions.Logn.Params
	assert.GreaterOrEqual(t, p[0], 10.0)
	assert.LessOrEqual(t, p[0], 50.0)
	assert.Equal(t, float64(int(p[0])), p[0], "params are rounded")
}

func TestScenariosFilterByCategory(t *testing.T) {
	all := Scenarios(DefaultScenarioCount)
	require.Len(t, all, 48)

	res := filter.Apply(all, filter.Query{}.With(model.FacetCategory, "Risk"))
	require.NotEmpty(t, res.Items)
	assert.Len(t, res.Items, 12)
	for _, s := range res.Items {
		assert.Equal(t, "Risk", s.Category)
	}
}

func TestScenarioByID(t *testing.T) {
	_, ok := ScenarioByID(0, 48)
	assert.False(t, ok)
	_, ok = ScenarioByID(49, 48)
	assert.False(t, ok)
	s, ok := ScenarioByID(48, 48)
	require.True(t, ok)
	assert.Equal(t, "Financial", s.Category)
}

func TestItems(t *testing.T) {
	items := Items()
	require.Len(t, items, ILDItemCount+ScenarioItemCount)

	first := items[0]
	assert.Equal(t, model.Item{ID: 1, Name: "ILD Plot 1", Type: model.ItemILD, Category: "Operational", Date: "2023-02-02", Status: model.StatusActive}, first)

	s15, ok := ItemByID(115)
	require.True(t, ok)
	assert.Equal(t, model.ItemScenario, s15.Type)
	assert.Equal(t, model.StatusArchived, s15.Status)

	_, ok = ItemByID(99)
	assert.False(t, ok)
}

func TestRunHistory(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	runs := RunHistory(DefaultHistorySize, asOf)
	require.Len(t, runs, DefaultHistorySize)
	assert.Equal(t, runs, RunHistory(DefaultHistorySize, asOf))
	for _, r := range runs {
		assert.GreaterOrEqual(t, r.CapitalAmount, int64(1_000_000))
		assert.Contains(t, []string{"Experiment", "Actual"}, r.Type)
		assert.Equal(t, fmt.Sprintf("%s Run %d", r.Type, r.ID), r.Name)
	}
}
