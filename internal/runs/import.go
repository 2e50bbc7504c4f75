package runs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"capital-risk/internal/model"
)

// UploadColumns must all be present in an uploaded experiment CSV.
var UploadColumns = []string{"product", "basel_event_type", "1in2", "1in5", "1in10", "1in20"}

// ImportExperimentCSV turns every row of an uploaded CSV into an experiment
// run for businessUnit. All rows share one "CSV Upload - <timestamp>" name.
func ImportExperimentCSV(ctx context.Context, store Store, r io.Reader, businessUnit string, at time.Time) ([]model.ExperimentRun, error) {
	if strings.TrimSpace(businessUnit) == "" {
		return nil, &ValidationError{Field: "business_unit", Message: "Business unit is required"}
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Field: "file", Message: "CSV file is empty"}
	}
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("invalid CSV: %v", err)}
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, c := range UploadColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Field:   "file",
			Message: "Missing required columns: " + strings.Join(missing, ", "),
		}
	}

	name := "CSV Upload - " + at.Format("2006-01-02 15:04:05")
	get := func(rec []string, col string) string {
		if i := idx[col]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var batch []model.ExperimentRun
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("invalid CSV: %v", err)}
		}
		batch = append(batch, model.ExperimentRun{
			RunBase: model.RunBase{
				BusinessUnit:   businessUnit,
				Product:        get(rec, "product"),
				BaselEventType: get(rec, "basel_event_type"),
			},
			ExperimentName: name,
			Values: &model.FrequencyValues{
				OneIn2:  get(rec, "1in2"),
				OneIn5:  get(rec, "1in5"),
				OneIn10: get(rec, "1in10"),
				OneIn20: get(rec, "1in20"),
			},
		})
	}
	if len(batch) == 0 {
		return []model.ExperimentRun{}, nil
	}
	return store.CreateExperimentRuns(ctx, batch...)
}
