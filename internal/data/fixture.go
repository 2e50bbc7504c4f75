package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"capital-risk/internal/catalog"
	"capital-risk/internal/model"
)

// Fixture serves reference data and runs from memory. Writes succeed and are
// kept for the life of the process, with generated "preview-" ids.
type Fixture struct {
	mu         sync.Mutex
	units      []model.BusinessUnit
	flatBasel  []string
	actual     []model.ActualRun
	experiment []model.ExperimentRun
	scenario   []model.ScenarioRun
	now        func() time.Time
}

// DefaultFixture serves the built-in catalog and two sample experiment runs.
func DefaultFixture() *Fixture {
	f := NewFixture(catalog.Defaults())
	f.flatBasel = catalog.FallbackBaselEventTypes()
	now := f.now()
	f.experiment = []model.ExperimentRun{
		{
			RunBase:        model.RunBase{BusinessUnit: "CFs", Product: "Business Enablers", BaselEventType: "DTPA"},
			ExperimentName: "Preview Experiment 1",
			ID:             "preview-1",
			CreatedAt:      now.Format(time.RFC3339),
		},
		{
			RunBase:        model.RunBase{BusinessUnit: "CIB", Product: "Global Markets", BaselEventType: "BDSF"},
			ExperimentName: "Preview Experiment 2",
			ID:             "preview-2",
			CreatedAt:      now.Add(-24 * time.Hour).Format(time.RFC3339),
		},
	}
	return f
}

// NewFixture serves units with no runs.
func NewFixture(units []model.BusinessUnit) *Fixture {
	return &Fixture{
		units:     units,
		flatBasel: catalog.BaselEventTypes(units, ""),
		now:       time.Now,
	}
}

func (f *Fixture) BusinessUnits(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return catalog.Names(f.units), nil
}

func (f *Fixture) Products(ctx context.Context, businessUnit string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return catalog.Products(f.units, businessUnit), nil
}

// BaselEventTypes returns the unit's types, or the flat list when the unit
// is empty or unknown.
func (f *Fixture) BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.units {
		if businessUnit != "" && u.Name == businessUnit {
			return append([]string{}, u.BaselEventTypes...), nil
		}
	}
	return append([]string{}, f.flatBasel...), nil
}

func (f *Fixture) CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.units {
		if u.Name == bu.Name {
			return model.CreateResult{Success: true, Message: fmt.Sprintf("Business unit %s already exists", bu.Name)}, nil
		}
	}
	f.units = append(f.units, bu)
	f.flatBasel = catalog.Unique(func(yield func(string)) {
		for _, v := range f.flatBasel {
			yield(v)
		}
		for _, v := range bu.BaselEventTypes {
			yield(v)
		}
	})
	return model.CreateResult{Success: true, Message: fmt.Sprintf("Business unit %s created in preview mode", bu.Name)}, nil
}

func (f *Fixture) CreateActualRun(ctx context.Context, run model.ActualRun) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = f.previewID()
	run.CreatedAt = f.now().Format(time.RFC3339)
	f.actual = append(f.actual, run)
	return previewCreated(run.ID), nil
}

func (f *Fixture) ActualRuns(ctx context.Context) ([]model.ActualRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ActualRun{}, f.actual...), nil
}

func (f *Fixture) CreateExperimentRun(ctx context.Context, run model.ExperimentRun) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = f.previewID()
	run.CreatedAt = f.now().Format(time.RFC3339)
	f.experiment = append(f.experiment, run)
	return previewCreated(run.ID), nil
}

func (f *Fixture) ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ExperimentRun{}, f.experiment...), nil
}

// DeleteExperimentRun always succeeds, like the preview UI it stands in for.
func (f *Fixture) DeleteExperimentRun(ctx context.Context, id string) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.experiment[:0]
	for _, r := range f.experiment {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.experiment = kept
	return model.CreateResult{Success: true, Message: fmt.Sprintf("Experiment run %s deleted successfully (preview mode)", id)}, nil
}

func (f *Fixture) CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = f.previewID()
	run.CreatedAt = f.now().Format(time.RFC3339)
	if run.Status == "" {
		run.Status = model.ScenarioRunRunning
	}
	f.scenario = append(f.scenario, run)
	return previewCreated(run.ID), nil
}

func (f *Fixture) ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ScenarioRun{}, f.scenario...), nil
}

func (f *Fixture) UpdateScenarioRun(ctx context.Context, id, status string) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.scenario {
		if f.scenario[i].ID == id {
			f.scenario[i].Status = status
		}
	}
	return model.CreateResult{Success: true, Message: fmt.Sprintf("Scenario run %s updated successfully (preview mode)", id)}, nil
}

// UploadCSV counts the data rows and records one experiment run per row.
func (f *Fixture) UploadCSV(ctx context.Context, businessUnit, filename string, body io.Reader) (model.CreateResult, error) {
	r := csv.NewReader(body)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil && !errors.Is(err, io.EOF) {
		return model.CreateResult{}, fmt.Errorf("invalid CSV: %w", err)
	}
	n := 0
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.CreateResult{}, fmt.Errorf("invalid CSV: %w", err)
		}
		n++
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	name := "CSV Upload - " + f.now().Format("2006-01-02 15:04:05")
	for range n {
		f.experiment = append(f.experiment, model.ExperimentRun{
			RunBase:        model.RunBase{BusinessUnit: businessUnit},
			ExperimentName: name,
			ID:             f.previewID(),
			CreatedAt:      f.now().Format(time.RFC3339),
		})
	}
	return model.CreateResult{
		Success:     true,
		Message:     fmt.Sprintf("Successfully processed %d experiment runs from CSV (preview mode)", n),
		RunsCreated: n,
	}, nil
}

func (f *Fixture) ResetData(ctx context.Context) (model.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units = catalog.Defaults()
	f.flatBasel = catalog.FallbackBaselEventTypes()
	f.actual, f.experiment, f.scenario = nil, nil, nil
	return model.CreateResult{Success: true, Message: "All data has been reset successfully (preview mode)"}, nil
}

// previewID must be called with f.mu held.
func (f *Fixture) previewID() string {
	return "preview-" + strconv.FormatInt(f.now().UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64()%(1<<35), 36)
}

func previewCreated(id string) model.CreateResult {
	return model.CreateResult{Success: true, ID: id, Message: "Created in preview mode (no backend connection)"}
}
