package runs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"capital-risk/internal/catalog"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
)

const (
	fileActualRuns      = "actual_runs.csv"
	fileExperimentRuns  = "experiment_runs.csv"
	fileScenarioRuns    = "scenario_runs.csv"
	fileBusinessUnits   = "business_units.csv"
	fileProducts        = "products.csv"
	fileBaselEventTypes = "basel_event_types.csv"
)

// CSVStore keeps one CSV file per table under a data directory. Files are
// read on every call and rewritten whole on every change.
type CSVStore struct {
	mu  sync.Mutex
	dir string
	log *logger.Logger
}

func NewCSVStore(dir string, log *logger.Logger) (*CSVStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &CSVStore{dir: dir, log: log.With("component", "CSVStore")}, nil
}

func (s *CSVStore) Dir() string { return s.dir }

func (s *CSVStore) BusinessUnits(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileBusinessUnits)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return catalog.Names(catalog.Defaults()), nil
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["name"])
	}
	return out, nil
}

func (s *CSVStore) Products(ctx context.Context, businessUnit string) ([]string, error) {
	return s.reference(fileProducts, productColumns, businessUnit, func() []string {
		return catalog.Products(catalog.Defaults(), businessUnit)
	})
}

func (s *CSVStore) BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error) {
	return s.reference(fileBaselEventTypes, baselColumns, businessUnit, func() []string {
		return catalog.BaselEventTypes(catalog.Defaults(), businessUnit)
	})
}

func (s *CSVStore) reference(file string, cols []string, businessUnit string, fallback func() []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(file)
	if err != nil {
		return nil, err
	}
	flat := make([][]string, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, []string{r[cols[0]], r[cols[1]]})
	}
	return referenceValues(flat, businessUnit, fallback), nil
}

func (s *CSVStore) CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (bool, error) {
	if err := validateBusinessUnit(bu); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(fileBusinessUnits)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		// Nothing stored yet means the catalog is being served; persist it
		// so the new unit is added to it rather than replacing it.
		if err := s.seedReference(); err != nil {
			return false, err
		}
		rows, err = s.read(fileBusinessUnits)
		if err != nil {
			return false, err
		}
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r["name"])
	}
	if slices.Contains(names, bu.Name) {
		return false, nil
	}
	if err := s.appendRows(fileBusinessUnits, businessUnitColumns, [][]string{{bu.Name}}); err != nil {
		return false, err
	}
	if err := s.appendRows(fileProducts, productColumns, pairs([]model.BusinessUnit{bu}, unitProducts)); err != nil {
		return false, err
	}
	if err := s.appendRows(fileBaselEventTypes, baselColumns, pairs([]model.BusinessUnit{bu}, unitBasel)); err != nil {
		return false, err
	}
	s.log.Info("Created business unit", "name", bu.Name, "products", len(bu.Products), "basel_event_types", len(bu.BaselEventTypes))
	return true, nil
}

func (s *CSVStore) CreateActualRun(ctx context.Context, run model.ActualRun) (model.ActualRun, error) {
	run, err := prepareActual(run)
	if err != nil {
		return run, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendRows(fileActualRuns, actualColumns, [][]string{actualRow(run)}); err != nil {
		return run, err
	}
	return run, nil
}

func (s *CSVStore) ActualRuns(ctx context.Context) ([]model.ActualRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileActualRuns)
	if err != nil {
		return nil, err
	}
	out := make([]model.ActualRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, actualFrom(r))
	}
	return out, nil
}

func (s *CSVStore) CreateExperimentRuns(ctx context.Context, in ...model.ExperimentRun) ([]model.ExperimentRun, error) {
	prepared, err := prepareExperiments(in)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(prepared))
	for _, r := range prepared {
		rows = append(rows, experimentRow(r))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendRows(fileExperimentRuns, experimentColumns, rows); err != nil {
		return nil, err
	}
	return prepared, nil
}

func (s *CSVStore) ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileExperimentRuns)
	if err != nil {
		return nil, err
	}
	out := make([]model.ExperimentRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, experimentFrom(r))
	}
	return out, nil
}

func (s *CSVStore) DeleteExperimentRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileExperimentRuns)
	if err != nil {
		return err
	}
	kept := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r["id"] != id {
			kept = append(kept, experimentRow(experimentFrom(r)))
		}
	}
	if len(kept) == len(rows) {
		return fmt.Errorf("experiment run %s: %w", id, ErrNotFound)
	}
	return s.write(fileExperimentRuns, experimentColumns, kept)
}

func (s *CSVStore) CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.ScenarioRun, error) {
	run, err := prepareScenario(run)
	if err != nil {
		return run, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendRows(fileScenarioRuns, scenarioColumns, [][]string{scenarioRow(run)}); err != nil {
		return run, err
	}
	return run, nil
}

func (s *CSVStore) ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileScenarioRuns)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScenarioRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, scenarioFrom(r))
	}
	return out, nil
}

func (s *CSVStore) UpdateScenarioRun(ctx context.Context, id, status string) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.read(fileScenarioRuns)
	if err != nil {
		return err
	}
	found := false
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		run := scenarioFrom(r)
		if run.ID == id {
			run.Status = status
			found = true
		}
		out = append(out, scenarioRow(run))
	}
	if !found {
		return fmt.Errorf("scenario run %s: %w", id, ErrNotFound)
	}
	return s.write(fileScenarioRuns, scenarioColumns, out)
}

func (s *CSVStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range []string{fileActualRuns, fileExperimentRuns, fileScenarioRuns} {
		if err := os.Remove(filepath.Join(s.dir, f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	if err := s.seedReference(); err != nil {
		return err
	}
	s.log.Info("Reset run data", "dir", s.dir)
	return nil
}

// seedReference overwrites the reference files with the catalog defaults.
func (s *CSVStore) seedReference() error {
	defaults := catalog.Defaults()
	names := make([][]string, 0, len(defaults))
	for _, n := range catalog.Names(defaults) {
		names = append(names, []string{n})
	}
	if err := s.write(fileBusinessUnits, businessUnitColumns, names); err != nil {
		return err
	}
	if err := s.write(fileProducts, productColumns, pairs(defaults, unitProducts)); err != nil {
		return err
	}
	return s.write(fileBaselEventTypes, baselColumns, pairs(defaults, unitBasel))
}

func (s *CSVStore) Close() error { return nil }

// read returns the rows of file keyed by header name; a missing file has no rows.
func (s *CSVStore) read(file string) ([]map[string]string, error) {
	f, err := os.Open(filepath.Join(s.dir, file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	out := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *CSVStore) appendRows(file string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	existing, err := s.read(file)
	if err != nil {
		return err
	}
	all := make([][]string, 0, len(existing)+len(rows))
	for _, r := range existing {
		vals := make([]string, len(header))
		for i, h := range header {
			vals[i] = r[h]
		}
		all = append(all, vals)
	}
	return s.write(file, header, append(all, rows...))
}

func (s *CSVStore) write(file string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, file)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
