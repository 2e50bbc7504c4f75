// Package generator produces the synthetic ILD metrics, scenarios and sample
// collections shown by the dashboard. Every generator is seeded from the
// record id, so the same id always yields the same values.
package generator

import (
	"math"
	"math/rand/v2"
)

// Stream salts keep the metric, scenario and sample sequences independent
// even when they share an id.
const (
	saltMetrics   uint64 = 0x494c44 // "ILD"
	saltScenarios uint64 = 0x53434e // "SCN"
	saltHistory   uint64 = 0x484953 // "HIS"
)

type source struct {
	r *rand.Rand
}

func newSource(id int, salt uint64) *source {
	return &source{r: rand.New(rand.NewPCG(uint64(int64(id)), salt))}
}

// uniform draws from [min, max).
func (s *source) uniform(lo, hi float64) float64 {
	return s.r.Float64()*(hi-lo) + lo
}

// intn draws from [0, n).
func (s *source) intn(n int) int {
	return s.r.IntN(n)
}

// offset reproduces the id-derived bias (seed % mod) / div that keeps values
// for neighbouring ids visibly distinct.
func offset(seed, mod int, div float64) float64 {
	return float64(seed%mod) / div
}

func round(x float64) float64 {
	return math.Round(x)
}
