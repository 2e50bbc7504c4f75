package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"capital-risk/internal/api/models"
	"capital-risk/internal/generator"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SelectionHandler exposes the selection registry.
type SelectionHandler struct {
	registry   *selection.Registry
	plots      int
	log        *logger.Logger
	production bool
	keepAlive  time.Duration
}

func NewSelectionHandler(registry *selection.Registry, plots int, log *logger.Logger, production bool) *SelectionHandler {
	return &SelectionHandler{
		registry:   registry,
		plots:      plots,
		log:        log.With("component", "SelectionHandler"),
		production: production,
		keepAlive:  25 * time.Second,
	}
}

func (h *SelectionHandler) state() models.SelectionsResponse {
	snap := h.registry.Snapshot()
	return models.SelectionsResponse{
		Items:   snap.Items,
		Metrics: snap.Metrics,
		Counts: models.SelectionCounts{
			ILD:           snap.Count(model.ItemILD),
			Scenario:      snap.Count(model.ItemScenario),
			ILDLimit:      snap.Limits.ILD,
			ScenarioLimit: snap.Limits.Scenario,
		},
	}
}

// GetSelections handles GET /api/selections
func (h *SelectionHandler) GetSelections(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// ToggleItem handles POST /api/selections/items/:id. Rows of the selection
// table always keep their own type; a body naming another one is rejected.
// The body's type is only used for ids outside the table.
func (h *SelectionHandler) ToggleItem(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req models.ToggleItemRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "INVALID_REQUEST", err)
			return
		}
	}
	item, known := generator.ItemByID(id)
	switch {
	case known && req.Type != "" && req.Type != item.Type:
		respondError(c, http.StatusBadRequest, "INVALID_ITEM",
			fmt.Sprintf("Item %d has type %s, not %s", id, item.Type, req.Type),
			map[string]interface{}{"id": id, "type": item.Type})
		return
	case known:
		req.Type = item.Type
	case req.Type == "":
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Item not found", map[string]interface{}{"id": id})
		return
	}

	selected, err := h.registry.Select(c.Request.Context(), model.SelectedItem{ID: id, Type: req.Type})
	if err != nil {
		failure(c, h.log, h.production, "update selection", err)
		return
	}
	c.JSON(http.StatusOK, models.ToggleResponse{ID: id, Selected: selected, State: h.state()})
}

// DeselectItem handles DELETE /api/selections/items/:id
func (h *SelectionHandler) DeselectItem(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.registry.Deselect(c.Request.Context(), id); err != nil {
		failure(c, h.log, h.production, "update selection", err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// ClearAll handles DELETE /api/selections
func (h *SelectionHandler) ClearAll(c *gin.Context) {
	if err := h.registry.ClearAll(c.Request.Context()); err != nil {
		failure(c, h.log, h.production, "clear selections", err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// SetMetric handles PUT /api/ild/:id/selection with {"metricId": n|null}.
func (h *SelectionHandler) SetMetric(c *gin.Context) {
	ildID, ok := intParam(c, "id")
	if !ok {
		return
	}
	if ildID > h.plots {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "ILD plot not found", map[string]interface{}{"id": ildID})
		return
	}
	var req models.SetMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	if req.MetricID != nil {
		if _, found := generator.Metric(ildID, *req.MetricID); !found {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Metric not found", map[string]interface{}{"ildId": ildID, "metricId": *req.MetricID})
			return
		}
	}
	if err := h.registry.SetMetricForPlot(c.Request.Context(), ildID, req.MetricID); err != nil {
		failure(c, h.log, h.production, "update metric selection", err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// ClearMetric handles DELETE /api/ild/:id/selection
func (h *SelectionHandler) ClearMetric(c *gin.Context) {
	ildID, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.registry.RemoveMetricForPlot(c.Request.Context(), ildID); err != nil {
		failure(c, h.log, h.production, "update metric selection", err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// Events handles GET /api/selections/events: a server-sent event stream that
// starts with a "snapshot" of the current state and then carries one event
// per change, named by its kind.
func (h *SelectionHandler) Events(c *gin.Context) {
	events, cancel := h.registry.Subscribe()
	defer cancel()

	clientID := uuid.NewString()
	log := h.log.With("client_id", clientID)
	log.Info("Selection stream opened")
	defer log.Info("Selection stream closed")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", h.state())
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Kind), ev)
		case <-ticker.C:
			c.SSEvent("ping", clientID)
		}
		c.Writer.Flush()
	}
}
