package handlers

import (
	"net/http"
	"time"

	"capital-risk/internal/analysis"
	"capital-risk/internal/api/models"
	"capital-risk/internal/filter"
	"capital-risk/internal/generator"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
)

// DashboardOptions sizes the generated collections.
type DashboardOptions struct {
	Plots       int
	Scenarios   int
	HistorySize int
}

// DashboardHandler serves the ILD, scenario, item and history views.
type DashboardHandler struct {
	registry   *selection.Registry
	opts       DashboardOptions
	log        *logger.Logger
	production bool
	now        func() time.Time
}

func NewDashboardHandler(registry *selection.Registry, opts DashboardOptions, log *logger.Logger, production bool) *DashboardHandler {
	if opts.Plots <= 0 {
		opts.Plots = 9
	}
	if opts.Scenarios <= 0 {
		opts.Scenarios = generator.DefaultScenarioCount
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = generator.DefaultHistorySize
	}
	return &DashboardHandler{
		registry:   registry,
		opts:       opts,
		log:        log.With("component", "DashboardHandler"),
		production: production,
		now:        time.Now,
	}
}

// ListPlots handles GET /api/ild
func (h *DashboardHandler) ListPlots(c *gin.Context) {
	plots := analysis.PlotSummaries(h.opts.Plots, h.registry.Snapshot().Metrics)
	selected := 0
	for _, p := range plots {
		if p.Metric != nil {
			selected++
		}
	}
	c.JSON(http.StatusOK, models.PlotsResponse{Plots: plots, Selected: selected, Total: h.opts.Plots})
}

// plotID reads :id and checks it names an existing plot.
func (h *DashboardHandler) plotID(c *gin.Context) (int, bool) {
	id, ok := intParam(c, "id")
	if !ok {
		return 0, false
	}
	if id > h.opts.Plots {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "ILD plot not found", map[string]interface{}{"id": id})
		return 0, false
	}
	return id, true
}

// ListMetrics handles GET /api/ild/:id/metrics?q=&distribution=&percentile=&sort=
func (h *DashboardHandler) ListMetrics(c *gin.Context) {
	id, ok := h.plotID(c)
	if !ok {
		return
	}
	var q models.MetricsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	query := filter.FromValues(c.Request.URL.Query(), model.FacetDistribution, model.FacetPercentile)
	res := filter.Apply(generator.Metrics(id), query)
	ranked, err := analysis.RankMetrics(res.Items, q.Sort)
	if err != nil {
		badRequest(c, "INVALID_SORT", err)
		return
	}

	out := models.MetricsResponse{ILDID: id, Items: ranked, Total: res.Total, Filtered: res.Active}
	if metricID, ok := h.registry.Snapshot().MetricForPlot(id); ok {
		out.Selected = &metricID
	}
	c.JSON(http.StatusOK, out)
}

// GetMetric handles GET /api/ild/:id/metrics/:metricId
func (h *DashboardHandler) GetMetric(c *gin.Context) {
	id, ok := h.plotID(c)
	if !ok {
		return
	}
	metricID, ok := intParam(c, "metricId")
	if !ok {
		return
	}
	m, found := generator.Metric(id, metricID)
	if !found {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Metric not found", map[string]interface{}{"ildId": id, "metricId": metricID})
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListScenarios handles GET /api/scenarios?q=&category=&count=
func (h *DashboardHandler) ListScenarios(c *gin.Context) {
	var q models.ScenariosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	n := h.opts.Scenarios
	if q.Count > 0 && q.Count < n {
		n = q.Count
	}
	query := filter.FromValues(c.Request.URL.Query(), model.FacetCategory)
	c.JSON(http.StatusOK, filter.Apply(generator.Scenarios(n), query))
}

// GetScenario handles GET /api/scenarios/:id
func (h *DashboardHandler) GetScenario(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	s, found := generator.ScenarioByID(id, h.opts.Scenarios)
	if !found {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Scenario not found", map[string]interface{}{"id": id})
		return
	}
	c.JSON(http.StatusOK, models.ScenarioResponse{Scenario: s, Comparison: analysis.CompareScenario(s)})
}

// ListItems handles GET /api/items?q=&type=&status=&category=
func (h *DashboardHandler) ListItems(c *gin.Context) {
	query := filter.FromValues(c.Request.URL.Query(), model.FacetType, model.FacetStatus, model.FacetCategory)
	res := filter.Apply(generator.Items(), query)

	snap := h.registry.Snapshot()
	views := make([]models.ItemView, 0, len(res.Items))
	for _, it := range res.Items {
		views = append(views, models.ItemView{Item: it, Selected: snap.IsSelected(it.ID)})
	}
	c.JSON(http.StatusOK, models.ItemsResponse{Items: views, Total: res.Total, Filtered: res.Active})
}

// RunHistory handles GET /api/run-history?q=&type=&business_unit=&status=
func (h *DashboardHandler) RunHistory(c *gin.Context) {
	query := filter.FromValues(c.Request.URL.Query(), model.FacetType, model.FacetBusinessUnit, model.FacetStatus)
	c.JSON(http.StatusOK, filter.Apply(generator.RunHistory(h.opts.HistorySize, h.now()), query))
}

// Summary handles GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	snap := h.registry.Snapshot()
	c.JSON(http.StatusOK, analysis.DashboardSummary(snap.Items, snap.Metrics, snap.Limits, h.opts.Plots))
}
