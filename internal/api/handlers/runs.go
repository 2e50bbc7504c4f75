package handlers

import (
	"fmt"
	"net/http"
	"time"

	"capital-risk/internal/api/models"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
	"capital-risk/internal/runs"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds a CSV upload.
const maxUploadBytes = 10 << 20

// RunsHandler handles the actual, experiment and scenario run endpoints.
type RunsHandler struct {
	store      runs.Store
	log        *logger.Logger
	production bool
	now        func() time.Time
}

func NewRunsHandler(store runs.Store, log *logger.Logger, production bool) *RunsHandler {
	return &RunsHandler{
		store:      store,
		log:        log.With("component", "RunsHandler"),
		production: production,
		now:        time.Now,
	}
}

// CreateActualRun handles POST /api/actual-runs
func (h *RunsHandler) CreateActualRun(c *gin.Context) {
	var req model.ActualRun
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	run, err := h.store.CreateActualRun(c.Request.Context(), req)
	if err != nil {
		failure(c, h.log, h.production, "create actual run", err)
		return
	}
	h.log.Info("Created actual run", "id", run.ID, "business_unit", run.BusinessUnit)
	c.JSON(http.StatusOK, model.CreateResult{Success: true, ID: run.ID, Message: "Actual run created successfully"})
}

// ListActualRuns handles GET /api/actual-runs
func (h *RunsHandler) ListActualRuns(c *gin.Context) {
	list, err := h.store.ActualRuns(c.Request.Context())
	if err != nil {
		failure(c, h.log, h.production, "retrieve actual runs", err)
		return
	}
	c.JSON(http.StatusOK, models.ActualRunsResponse{Runs: list})
}

// CreateExperimentRun handles POST /api/experiment-runs
func (h *RunsHandler) CreateExperimentRun(c *gin.Context) {
	var req model.ExperimentRun
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	created, err := h.store.CreateExperimentRuns(c.Request.Context(), req)
	if err != nil {
		failure(c, h.log, h.production, "create experiment run", err)
		return
	}
	run := created[0]
	h.log.Info("Created experiment run", "id", run.ID, "name", run.ExperimentName)
	c.JSON(http.StatusOK, model.CreateResult{Success: true, ID: run.ID, Message: "Experiment run created successfully"})
}

// ListExperimentRuns handles GET /api/experiment-runs
func (h *RunsHandler) ListExperimentRuns(c *gin.Context) {
	list, err := h.store.ExperimentRuns(c.Request.Context())
	if err != nil {
		failure(c, h.log, h.production, "retrieve experiment runs", err)
		return
	}
	c.JSON(http.StatusOK, models.ExperimentRunsResponse{Runs: list})
}

// DeleteExperimentRun handles DELETE /api/experiment-runs/:id
func (h *RunsHandler) DeleteExperimentRun(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteExperimentRun(c.Request.Context(), id); err != nil {
		failure(c, h.log, h.production, "delete experiment run", err)
		return
	}
	c.JSON(http.StatusOK, model.CreateResult{Success: true, Message: fmt.Sprintf("Experiment run %s deleted successfully", id)})
}

// CreateScenarioRun handles POST /api/scenario-runs
func (h *RunsHandler) CreateScenarioRun(c *gin.Context) {
	var req model.ScenarioRun
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	run, err := h.store.CreateScenarioRun(c.Request.Context(), req)
	if err != nil {
		failure(c, h.log, h.production, "create scenario run", err)
		return
	}
	c.JSON(http.StatusOK, model.CreateResult{Success: true, ID: run.ID, Message: "Scenario run created successfully"})
}

// ListScenarioRuns handles GET /api/scenario-runs
func (h *RunsHandler) ListScenarioRuns(c *gin.Context) {
	list, err := h.store.ScenarioRuns(c.Request.Context())
	if err != nil {
		failure(c, h.log, h.production, "retrieve scenario runs", err)
		return
	}
	c.JSON(http.StatusOK, models.ScenarioRunsResponse{Runs: list})
}

// UpdateScenarioRun handles PUT /api/scenario-runs/:id
func (h *RunsHandler) UpdateScenarioRun(c *gin.Context) {
	var req models.UpdateScenarioRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	id := c.Param("id")
	if err := h.store.UpdateScenarioRun(c.Request.Context(), id, req.Status); err != nil {
		failure(c, h.log, h.production, "update scenario run", err)
		return
	}
	c.JSON(http.StatusOK, model.CreateResult{Success: true, Message: fmt.Sprintf("Scenario run %s updated successfully", id)})
}

// UploadCSV handles POST /api/upload-csv?business_unit= with a multipart "file".
func (h *RunsHandler) UploadCSV(c *gin.Context) {
	bu := c.Query("business_unit")
	if bu == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Business unit is required", nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "INVALID_REQUEST", fmt.Errorf("a CSV file is required in the \"file\" field: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		failure(c, h.log, h.production, "process CSV file", err)
		return
	}
	defer f.Close()

	created, err := runs.ImportExperimentCSV(c.Request.Context(), h.store, f, bu, h.now())
	if err != nil {
		failure(c, h.log, h.production, "process CSV file", err)
		return
	}
	h.log.Info("Imported experiment runs", "file", fh.Filename, "business_unit", bu, "runs", len(created))
	c.JSON(http.StatusOK, model.CreateResult{
		Success:     true,
		Message:     fmt.Sprintf("Successfully processed %d experiment runs from CSV", len(created)),
		RunsCreated: len(created),
	})
}

// ResetData handles POST /api/reset-data
func (h *RunsHandler) ResetData(c *gin.Context) {
	if err := h.store.Reset(c.Request.Context()); err != nil {
		failure(c, h.log, h.production, "reset data", err)
		return
	}
	c.JSON(http.StatusOK, model.CreateResult{Success: true, Message: "All data has been reset successfully"})
}
