package analysis

import (
	"fmt"
	"sort"
	"strings"

	"capital-risk/internal/model"
)

// Metric sort keys accepted by RankMetrics. Prefix with "-" to sort descending.
const (
	RankByAIC    = "aic"
	RankByRWAX   = "rwa_x"
	RankByLambda = "lambda"
)

// RankMetrics returns a sorted copy of metrics. Ties keep metric id order.
// An empty key returns the metrics unchanged.
func RankMetrics(metrics []model.Metric, by string) ([]model.Metric, error) {
	out := append([]model.Metric{}, metrics...)
	if by == "" {
		return out, nil
	}
	desc := strings.HasPrefix(by, "-")
	key := strings.TrimPrefix(by, "-")

	var value func(model.Metric) float64
	switch key {
	case RankByAIC:
		value = func(m model.Metric) float64 { return m.AIC }
	case RankByRWAX:
		value = func(m model.Metric) float64 { return m.RWAX }
	case RankByLambda:
		value = func(m model.Metric) float64 { return m.Lambda }
	default:
		return nil, fmt.Errorf("unknown sort key %q: use aic, rwa_x or lambda", by)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := value(out[i]), value(out[j])
		if a == b {
			return out[i].ID < out[j].ID
		}
		if desc {
			return a > b
		}
		return a < b
	})
	return out, nil
}
