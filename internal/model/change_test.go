package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentageChange(t *testing.T) {
	assert.InDelta(t, 10.0, PercentageChange(110, 100), 1e-9)
	assert.InDelta(t, -50.0, PercentageChange(1, 2), 1e-9)

	for _, x := range []float64{-3, 0, 1, 1e9} {
		assert.Equal(t, 0.0, PercentageChange(x, 0), "previous=0 must yield 0 for current=%v", x)
	}
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, TrendUp, TrendOf(0.1))
	assert.Equal(t, TrendDown, TrendOf(-2))
	assert.Equal(t, TrendFlat, TrendOf(0))
}

func TestRunEntryConversions(t *testing.T) {
	e := RunEntry{
		Name:           "Q2 stress",
		BusinessUnit:   "CIB",
		Date:           "2025-06-30",
		Product:        "TPS",
		BaselEventType: "EF",
	}

	exp := e.ExperimentRun()
	assert.Equal(t, "Q2 stress", exp.ExperimentName)
	assert.Equal(t, "CIB", exp.BusinessUnit)
	assert.Nil(t, exp.Values, "empty frequency values are omitted")

	e.Values.OneIn10 = "12.5"
	exp = e.ExperimentRun()
	if assert.NotNil(t, exp.Values) {
		assert.Equal(t, "12.5", exp.Values.OneIn10)
	}

	act := e.ActualRun()
	assert.Equal(t, "2025-06-30", act.RunDate)
	assert.Equal(t, "TPS", act.Product)
}
