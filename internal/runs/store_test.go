package runs

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"capital-risk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"csv": func(t *testing.T) Store {
			s, err := NewCSVStore(t.TempDir(), nil)
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLStore(context.Background(), BackendSQLite, filepath.Join(t.TempDir(), "runs.db"), nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func actual() model.ActualRun {
	return model.ActualRun{
		RunBase: model.RunBase{BusinessUnit: "CIB", Product: "TPS", BaselEventType: "IF"},
		RunDate: "2024-12-31",
	}
}

func TestReferenceFallsBackToCatalog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		units, err := s.BusinessUnits(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CFs", "CIB", "PBB"}, units)

		products, err := s.Products(ctx, "CIB")
		require.NoError(t, err)
		assert.Equal(t, []string{"Business Enabler", "Global Markets", "Investment Banking", "TPS"}, products)

		all, err := s.BaselEventTypes(ctx, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"DTPA", "EPWS", "EDPM - FIFC", "CPBP", "IF", "EDPM - TAX", "EF", "BDSF", "EDPM"}, all)
	})
}

func TestCreateBusinessUnit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.CreateBusinessUnit(ctx, model.BusinessUnit{
			Name:            "Wealth",
			Products:        []string{"Advisory"},
			BaselEventTypes: []string{"EF"},
		})
		require.NoError(t, err)
		assert.True(t, created)

		units, err := s.BusinessUnits(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CFs", "CIB", "PBB", "Wealth"}, units)

		products, err := s.Products(ctx, "Wealth")
		require.NoError(t, err)
		assert.Equal(t, []string{"Advisory"}, products)

		again, err := s.CreateBusinessUnit(ctx, model.BusinessUnit{Name: "Wealth", Products: []string{"Other"}})
		require.NoError(t, err)
		assert.False(t, again)
		products, err = s.Products(ctx, "Wealth")
		require.NoError(t, err)
		assert.Equal(t, []string{"Advisory"}, products)

		unknown, err := s.Products(ctx, "Atlantis")
		require.NoError(t, err)
		assert.Len(t, unknown, 14)
		assert.Contains(t, unknown, "Advisory")

		_, err = s.CreateBusinessUnit(ctx, model.BusinessUnit{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestActualRuns(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		run, err := s.CreateActualRun(ctx, actual())
		require.NoError(t, err)
		assert.Len(t, run.ID, 36)
		_, err = time.Parse(time.RFC3339, run.CreatedAt)
		assert.NoError(t, err)

		list, err := s.ActualRuns(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, run, list[0])

		bad := actual()
		bad.RunDate = ""
		_, err = s.CreateActualRun(ctx, bad)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "run_date", verr.Field)
	})
}

func TestExperimentRunsLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.CreateExperimentRuns(ctx,
			model.ExperimentRun{
				RunBase:        model.RunBase{BusinessUnit: "PBB", Product: "Card", BaselEventType: "EF"},
				ExperimentName: "first",
				Values:         &model.FrequencyValues{OneIn2: "1", OneIn5: "2", OneIn10: "3", OneIn20: "4"},
			},
			model.ExperimentRun{
				RunBase:        model.RunBase{BusinessUnit: "PBB", Product: "HL", BaselEventType: "IF"},
				ExperimentName: "second",
			},
		)
		require.NoError(t, err)
		require.Len(t, created, 2)

		list, err := s.ExperimentRuns(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "first", list[0].ExperimentName)
		require.NotNil(t, list[0].Values)
		assert.Equal(t, "4", list[0].Values.OneIn20)
		assert.Nil(t, list[1].Values)

		require.NoError(t, s.DeleteExperimentRun(ctx, created[0].ID))
		list, err = s.ExperimentRuns(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "second", list[0].ExperimentName)

		assert.ErrorIs(t, s.DeleteExperimentRun(ctx, "missing"), ErrNotFound)
	})
}

func TestScenarioRuns(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		run, err := s.CreateScenarioRun(ctx, model.ScenarioRun{Name: "Stress", BusinessUnit: "CIB", Product: "TPS"})
		require.NoError(t, err)
		assert.Equal(t, model.ScenarioRunRunning, run.Status)

		require.NoError(t, s.UpdateScenarioRun(ctx, run.ID, "completed"))
		list, err := s.ScenarioRuns(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "completed", list[0].Status)

		// unchanged status still succeeds
		require.NoError(t, s.UpdateScenarioRun(ctx, run.ID, "completed"))
		assert.ErrorIs(t, s.UpdateScenarioRun(ctx, "missing", "failed"), ErrNotFound)
		assert.ErrorIs(t, s.UpdateScenarioRun(ctx, run.ID, ""), ErrValidation)
	})
}

func TestReset(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.CreateActualRun(ctx, actual())
		require.NoError(t, err)
		_, err = s.CreateBusinessUnit(ctx, model.BusinessUnit{Name: "Wealth"})
		require.NoError(t, err)

		require.NoError(t, s.Reset(ctx))

		runs, err := s.ActualRuns(ctx)
		require.NoError(t, err)
		assert.Empty(t, runs)
		units, err := s.BusinessUnits(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CFs", "CIB", "PBB"}, units)
		products, err := s.Products(ctx, "CFs")
		require.NoError(t, err)
		assert.Equal(t, []string{"Business Enablers"}, products)
	})
}

func TestImportExperimentCSV(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		body := "product,basel_event_type,1in2,1in5,1in10,1in20\nCard,EF,10,20,30,40\nHL,IF,1,2,3,4\n"
		runs, err := ImportExperimentCSV(ctx, s, strings.NewReader(body), "PBB", at)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "CSV Upload - 2025-03-01 09:30:00", runs[0].ExperimentName)
		assert.Equal(t, "PBB", runs[1].BusinessUnit)
		assert.Equal(t, "40", runs[0].Values.OneIn20)

		stored, err := s.ExperimentRuns(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("missing columns", func(t *testing.T) {
		s, err := NewCSVStore(t.TempDir(), nil)
		require.NoError(t, err)
		_, err = ImportExperimentCSV(context.Background(), s, strings.NewReader("product,1in2\nCard,1\n"), "PBB", at)
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Missing required columns: basel_event_type, 1in5, 1in10, 1in20", err.Error())
	})

	t.Run("business unit required", func(t *testing.T) {
		s, err := NewCSVStore(t.TempDir(), nil)
		require.NoError(t, err)
		_, err = ImportExperimentCSV(context.Background(), s, strings.NewReader(""), "", at)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Backend("oracle"), "x", nil)
	assert.Error(t, err)
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{backend: BackendPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", s.rebind("UPDATE t SET a = ? WHERE id = ?"))
	s.backend = BackendMySQL
	assert.Equal(t, "DELETE FROM t WHERE id = ?", s.rebind("DELETE FROM t WHERE id = ?"))
}
