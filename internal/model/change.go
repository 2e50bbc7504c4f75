package model

// PercentageChange returns ((current - previous) / previous) * 100.
// A zero previous value yields 0 rather than an infinity.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return ((current - previous) / previous) * 100
}

// Trend is a human-friendly direction for a percentage change.
// Keep these values stable; they are part of the JSON output.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendFlat Trend = "FLAT"
	TrendDown Trend = "DOWN"
)

func TrendOf(pct float64) Trend {
	switch {
	case pct > 0:
		return TrendUp
	case pct < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}
