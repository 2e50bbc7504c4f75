// Package data provides the capital-runs data source used by the CLI and any
// other client of the /api endpoints: a live REST client, an in-memory
// fixture, and a fallback that masks live failures with the fixture.
package data

import (
	"context"
	"fmt"
	"io"

	"capital-risk/internal/config"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
)

// Mode selects the Source built by NewSource.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeFixture  Mode = "fixture"
	ModeFallback Mode = "fallback"
)

// Source is every capital-runs operation a client can perform.
type Source interface {
	BusinessUnits(ctx context.Context) ([]string, error)
	Products(ctx context.Context, businessUnit string) ([]string, error)
	BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error)
	CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (model.CreateResult, error)

	CreateActualRun(ctx context.Context, run model.ActualRun) (model.CreateResult, error)
	ActualRuns(ctx context.Context) ([]model.ActualRun, error)

	CreateExperimentRun(ctx context.Context, run model.ExperimentRun) (model.CreateResult, error)
	ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error)
	DeleteExperimentRun(ctx context.Context, id string) (model.CreateResult, error)

	CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.CreateResult, error)
	ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error)
	UpdateScenarioRun(ctx context.Context, id, status string) (model.CreateResult, error)

	UploadCSV(ctx context.Context, businessUnit, filename string, body io.Reader) (model.CreateResult, error)
	ResetData(ctx context.Context) (model.CreateResult, error)
}

// NewSource picks the data source once at startup.
func NewSource(cfg config.DataSourceConfig, log *logger.Logger) (Source, error) {
	if log == nil {
		log = logger.Nop()
	}
	fixture, err := fixtureFor(cfg)
	if err != nil {
		return nil, err
	}
	switch Mode(cfg.Mode) {
	case ModeFixture:
		log.Info("Using fixture data source", "reference_file", cfg.ReferenceFile)
		return fixture, nil
	case ModeLive:
		log.Info("Using live data source", "base_url", cfg.BaseURL)
		return NewClient(cfg.BaseURL, cfg.Timeout, NewResponseCache(cfg.CacheTTL), log), nil
	case ModeFallback, "":
		log.Info("Using live data source with fixture fallback", "base_url", cfg.BaseURL)
		live := NewClient(cfg.BaseURL, cfg.Timeout, NewResponseCache(cfg.CacheTTL), log)
		return NewFallback(live, fixture, log), nil
	}
	return nil, fmt.Errorf("unknown data source mode %q", cfg.Mode)
}

func fixtureFor(cfg config.DataSourceConfig) (*Fixture, error) {
	if cfg.ReferenceFile == "" {
		return DefaultFixture(), nil
	}
	ref, err := LoadReferenceFile(cfg.ReferenceFile)
	if err != nil {
		return nil, err
	}
	return NewFixture(ref.BusinessUnits), nil
}
