package data

import (
	"context"
	"errors"
	"io"

	"capital-risk/internal/logger"
	"capital-risk/internal/model"
)

// Fallback calls the live source and masks its failures: reference lists
// come from the fixture, run listings are empty, and writes report
// Success=false with a connection message. It never returns an error.
type Fallback struct {
	live    Source
	fixture *Fixture
	log     *logger.Logger
}

func NewFallback(live Source, fixture *Fixture, log *logger.Logger) *Fallback {
	if log == nil {
		log = logger.Nop()
	}
	if fixture == nil {
		fixture = DefaultFixture()
	}
	return &Fallback{live: live, fixture: fixture, log: log.With("component", "FallbackSource")}
}

const connectionHint = "Please check your connection to the backend server."

func (f *Fallback) BusinessUnits(ctx context.Context) ([]string, error) {
	v, err := f.live.BusinessUnits(ctx)
	if err != nil {
		f.log.Warn("Error fetching business units from API, using fallback data", "error", err)
		return f.fixture.BusinessUnits(ctx)
	}
	return v, nil
}

func (f *Fallback) Products(ctx context.Context, businessUnit string) ([]string, error) {
	v, err := f.live.Products(ctx, businessUnit)
	if err != nil {
		f.log.Warn("Error fetching products from API, using fallback data", "business_unit", businessUnit, "error", err)
		return f.fixture.Products(ctx, businessUnit)
	}
	return v, nil
}

func (f *Fallback) BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error) {
	v, err := f.live.BaselEventTypes(ctx, businessUnit)
	if err != nil {
		f.log.Warn("Error fetching Basel event types from API, using fallback data", "error", err)
		return f.fixture.BaselEventTypes(ctx, "")
	}
	return v, nil
}

func (f *Fallback) CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (model.CreateResult, error) {
	return f.write("create business unit", func() (model.CreateResult, error) { return f.live.CreateBusinessUnit(ctx, bu) })
}

func (f *Fallback) CreateActualRun(ctx context.Context, run model.ActualRun) (model.CreateResult, error) {
	return f.write("create actual run", func() (model.CreateResult, error) { return f.live.CreateActualRun(ctx, run) })
}

func (f *Fallback) ActualRuns(ctx context.Context) ([]model.ActualRun, error) {
	return listOrEmpty(f, "actual runs", func() ([]model.ActualRun, error) { return f.live.ActualRuns(ctx) })
}

func (f *Fallback) CreateExperimentRun(ctx context.Context, run model.ExperimentRun) (model.CreateResult, error) {
	return f.write("create experiment run", func() (model.CreateResult, error) { return f.live.CreateExperimentRun(ctx, run) })
}

func (f *Fallback) ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error) {
	return listOrEmpty(f, "experiment runs", func() ([]model.ExperimentRun, error) { return f.live.ExperimentRuns(ctx) })
}

func (f *Fallback) DeleteExperimentRun(ctx context.Context, id string) (model.CreateResult, error) {
	return f.write("delete experiment run", func() (model.CreateResult, error) { return f.live.DeleteExperimentRun(ctx, id) })
}

func (f *Fallback) CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.CreateResult, error) {
	return f.write("create scenario run", func() (model.CreateResult, error) { return f.live.CreateScenarioRun(ctx, run) })
}

func (f *Fallback) ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error) {
	return listOrEmpty(f, "scenario runs", func() ([]model.ScenarioRun, error) { return f.live.ScenarioRuns(ctx) })
}

func (f *Fallback) UpdateScenarioRun(ctx context.Context, id, status string) (model.CreateResult, error) {
	return f.write("update scenario run", func() (model.CreateResult, error) { return f.live.UpdateScenarioRun(ctx, id, status) })
}

func (f *Fallback) UploadCSV(ctx context.Context, businessUnit, filename string, body io.Reader) (model.CreateResult, error) {
	return f.write("upload CSV", func() (model.CreateResult, error) { return f.live.UploadCSV(ctx, businessUnit, filename, body) })
}

func (f *Fallback) ResetData(ctx context.Context) (model.CreateResult, error) {
	return f.write("reset data", func() (model.CreateResult, error) { return f.live.ResetData(ctx) })
}

func (f *Fallback) write(action string, call func() (model.CreateResult, error)) (model.CreateResult, error) {
	res, err := call()
	if err != nil {
		f.log.Error("Error calling API", "action", action, "error", err)
		msg := "Failed to " + action + ". " + connectionHint
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
			msg = apiErr.Message
		}
		return model.CreateResult{Success: false, Message: msg}, nil
	}
	return res, nil
}

func listOrEmpty[T any](f *Fallback, what string, call func() ([]T, error)) ([]T, error) {
	v, err := call()
	if err != nil {
		f.log.Warn("Error fetching runs from API", "runs", what, "error", err)
		return []T{}, nil
	}
	return v, nil
}
