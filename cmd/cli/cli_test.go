package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"capital-risk/internal/api"
	"capital-risk/internal/api/handlers"
	"capital-risk/internal/data"
	"capital-risk/internal/export"
	"capital-risk/internal/logger"
	"capital-risk/internal/runs"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI in fixture mode against a selection file in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	base := []string{
		"--mode", "fixture",
		"--selections", filepath.Join(dir, "selections.json"),
		"--log-mode", "off",
		"--no-color",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMetricsCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "metrics", "2", "--distribution", "lognm", "--sort", "-aic")
	require.NoError(t, err)
	assert.Contains(t, out, "ILD Plot 2")
	assert.Contains(t, out, "Showing 4 of 28 metrics")
	assert.NotContains(t, out, "gamm")

	_, err = execute(t, dir, "metrics", "10")
	assert.ErrorContains(t, err, "between 1 and 9")

	_, err = execute(t, dir, "metrics", "1", "--sort", "bic")
	assert.ErrorContains(t, err, "unknown sort key")
}

func TestScenariosAndItemsCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "scenarios", "--category", "Market")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 12 of 48 scenarios")

	out, err = execute(t, dir, "items", "--type", "Scenario", "--status", "archived")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario 5")
	assert.Contains(t, out, "Showing 10 of 70 items")
}

func TestSelectPersistsAcrossInvocations(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "select", "item", "3")
	require.NoError(t, err)
	assert.Equal(t, "Selected ILD item 3 (1/9)\n", out)

	out, err = execute(t, dir, "select", "metric", "4", "12")
	require.NoError(t, err)
	assert.Equal(t, "Selected metric 12 for ILD plot 4\n", out)

	out, err = execute(t, dir, "selections")
	require.NoError(t, err)
	assert.Contains(t, out, "ILD: 1/9")
	assert.Contains(t, out, "ILD Plot 3")
	assert.Contains(t, out, "gamm p100")

	out, err = execute(t, dir, "metrics", "4", "--percentile", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "✓")

	out, err = execute(t, dir, "select", "item", "3")
	require.NoError(t, err)
	assert.Equal(t, "Deselected ILD item 3 (0/9)\n", out)

	_, err = execute(t, dir, "select", "metric", "4", "29")
	assert.ErrorContains(t, err, "metric 29 not found")

	out, err = execute(t, dir, "select", "metric", "4", "none")
	require.NoError(t, err)
	assert.Equal(t, "Cleared metric for ILD plot 4\n", out)
}

func TestSelectItemCap(t *testing.T) {
	dir := t.TempDir()
	for id := 1; id <= 9; id++ {
		_, err := execute(t, dir, "select", "item", strconv.Itoa(id))
		require.NoError(t, err)
	}
	_, err := execute(t, dir, "select", "item", "10")
	var capErr *selection.CapError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 9, capErr.Limit)

	_, err = execute(t, dir, "select", "item", "10", "--type", "Scenario")
	require.ErrorIs(t, err, selection.ErrInvalidItem)

	out, err := execute(t, dir, "select", "item", "500", "--type", "Scenario")
	require.NoError(t, err)
	assert.Equal(t, "Selected Scenario item 500 (1/37)\n", out)

	out, err = execute(t, dir, "selections")
	require.NoError(t, err)
	assert.Contains(t, out, "ILD: 9/9")
	assert.Contains(t, out, "Scenario: 1/37")

	out, err = execute(t, dir, "selections", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared all selections\n", out)
}

func TestRunsCommandsInFixtureMode(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "runs", "list", "--kind", "experiment")
	require.NoError(t, err)
	assert.Contains(t, out, "Preview Experiment 1")
	assert.Contains(t, out, "preview-2")

	out, err = execute(t, dir, "runs", "create-actual", "--business-unit", "CIB", "--product", "TPS", "--basel-event-type", "IF", "--date", "2025-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Created in preview mode (no backend connection) (id preview-")

	_, err = execute(t, dir, "runs", "list", "--kind", "pending")
	assert.ErrorContains(t, err, "unknown run kind")
}

func TestReferenceSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yaml")

	out, err := execute(t, dir, "reference", "--save", path)
	require.NoError(t, err)
	assert.Equal(t, "Saved 3 business units to "+path+"\n", out)

	ref, err := data.LoadReferenceFile(path)
	require.NoError(t, err)
	require.Len(t, ref.BusinessUnits, 3)
	assert.Equal(t, "PBB", ref.BusinessUnits[2].Name)
	assert.Contains(t, ref.BusinessUnits[2].Products, "Card")

	out, err = execute(t, dir, "reference", "--business-unit", "CFs")
	require.NoError(t, err)
	assert.Contains(t, out, "Business Enablers")
	assert.NotContains(t, out, "Global Markets")
}

func TestExportCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "export", "metrics", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 29)

	path := filepath.Join(dir, "scenarios.parquet")
	out, err = execute(t, dir, "export", "scenarios", "--category", "Risk", "--format", "parquet", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "Wrote 24 rows to "+path+"\n", out)

	rows, err := parquet.ReadFile[export.ScenarioRow](path)
	require.NoError(t, err)
	assert.Len(t, rows, 24)

	_, err = execute(t, dir, "export", "metrics", "1", "--format", "xlsx")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestRunsCommandsAgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := runs.NewCSVStore(t.TempDir(), nil)
	require.NoError(t, err)
	reg, err := selection.NewRegistry(context.Background(), selection.NewMemoryStore(), selection.DefaultLimits(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Runs:      store,
		Selection: reg,
		Dashboard: handlers.DashboardOptions{Plots: 9, Scenarios: 48, HistorySize: 20},
		Log:       logger.Nop(),
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	live := func(args ...string) (string, error) {
		return execute(t, dir, append([]string{"--mode", "live", "--url", srv.URL + "/api"}, args...)...)
	}

	out, err := live("runs", "create-experiment", "--name", "Q3", "--business-unit", "PBB", "--product", "Card", "--basel-event-type", "EF", "--1in10", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Experiment run created successfully")

	csvPath := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("product,basel_event_type,1in2,1in5,1in10,1in20\nHL,IF,1,2,3,4\n"), 0o644))
	out, err = live("runs", "upload", csvPath, "--business-unit", "PBB")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully processed 1 experiment runs from CSV")

	list, err := store.ExperimentRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "42", list[0].Values.OneIn10)

	out, err = live("runs", "list", "--kind", "experiment")
	require.NoError(t, err)
	assert.Contains(t, out, "Q3")

	_, err = live("runs", "create-actual", "--business-unit", "CIB")
	var apiErr *data.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)

	out, err = live("runs", "delete", list[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted successfully")
}
