// Package runs persists capital runs and the business-unit reference data
// behind the /api endpoints.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"capital-risk/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the first missing or invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Store is the persistence layer of the capital-runs API.
type Store interface {
	BusinessUnits(ctx context.Context) ([]string, error)
	Products(ctx context.Context, businessUnit string) ([]string, error)
	BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error)
	// CreateBusinessUnit reports false when the unit already existed, in
	// which case nothing is changed.
	CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (bool, error)

	CreateActualRun(ctx context.Context, run model.ActualRun) (model.ActualRun, error)
	ActualRuns(ctx context.Context) ([]model.ActualRun, error)

	CreateExperimentRuns(ctx context.Context, runs ...model.ExperimentRun) ([]model.ExperimentRun, error)
	ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error)
	DeleteExperimentRun(ctx context.Context, id string) error

	CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.ScenarioRun, error)
	ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error)
	UpdateScenarioRun(ctx context.Context, id, status string) error

	// Reset drops every run and restores the default reference data.
	Reset(ctx context.Context) error
	Close() error
}

func now() string { return time.Now().Format(time.RFC3339) }

func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &ValidationError{Field: pairs[i]}
		}
	}
	return nil
}

func prepareActual(run model.ActualRun) (model.ActualRun, error) {
	if err := required(
		"business_unit", run.BusinessUnit,
		"product", run.Product,
		"basel_event_type", run.BaselEventType,
		"run_date", run.RunDate,
	); err != nil {
		return run, err
	}
	run.ID = uuid.NewString()
	run.CreatedAt = now()
	return run, nil
}

func prepareExperiment(run model.ExperimentRun) (model.ExperimentRun, error) {
	if err := required(
		"business_unit", run.BusinessUnit,
		"product", run.Product,
		"basel_event_type", run.BaselEventType,
		"experiment_name", run.ExperimentName,
	); err != nil {
		return run, err
	}
	run.ID = uuid.NewString()
	run.CreatedAt = now()
	return run, nil
}

func prepareScenario(run model.ScenarioRun) (model.ScenarioRun, error) {
	if err := required(
		"name", run.Name,
		"business_unit", run.BusinessUnit,
		"product", run.Product,
	); err != nil {
		return run, err
	}
	if strings.TrimSpace(run.Status) == "" {
		run.Status = model.ScenarioRunRunning
	}
	run.ID = uuid.NewString()
	run.CreatedAt = now()
	return run, nil
}

func validateBusinessUnit(bu model.BusinessUnit) error {
	return required("name", bu.Name)
}

func validateStatus(status string) error {
	return required("status", status)
}

func prepareExperiments(in []model.ExperimentRun) ([]model.ExperimentRun, error) {
	out := make([]model.ExperimentRun, 0, len(in))
	for i, r := range in {
		p, err := prepareExperiment(r)
		if err != nil {
			if len(in) > 1 {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
