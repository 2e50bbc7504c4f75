package generator

import (
	"fmt"
	"time"

	"capital-risk/internal/model"
)

var (
	historyTypes         = []string{"Experiment", "Actual"}
	historyBusinessUnits = []string{"CIB", "CFS", "PBB"}
	historyFrequencies   = []string{"1 in 2 years", "1 in 5 years", "1 in 10 years", "1 in 20 years"}
	historyStatuses      = []string{"Completed", "Processing", "Failed"}
)

// DefaultHistorySize is the number of rows on the run-history page.
const DefaultHistorySize = 20

// RunHistory generates n sample history rows dated within the 60 days
// before asOf.
func RunHistory(n int, asOf time.Time) []model.HistoryRun {
	if n < 0 {
		n = 0
	}
	out := make([]model.HistoryRun, 0, n)
	for i := 1; i <= n; i++ {
		src := newSource(i, saltHistory)
		typ := historyTypes[src.intn(len(historyTypes))]
		out = append(out, model.HistoryRun{
			ID:            i,
			Name:          fmt.Sprintf("%s Run %d", typ, i),
			Type:          typ,
			BusinessUnit:  historyBusinessUnits[src.intn(len(historyBusinessUnits))],
			Frequency:     historyFrequencies[src.intn(len(historyFrequencies))],
			Date:          asOf.AddDate(0, 0, -src.intn(60)).Format("2006-01-02"),
			Status:        historyStatuses[src.intn(len(historyStatuses))],
			CapitalAmount: int64(src.intn(10_000_000)) + 1_000_000,
			Change:        src.uniform(-10, 10),
		})
	}
	return out
}
