// Package api wires the HTTP handlers of the capital-risk dashboard.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"capital-risk/internal/api/handlers"
	"capital-risk/internal/api/middleware"
	"capital-risk/internal/logger"
	"capital-risk/internal/runs"
	"capital-risk/internal/selection"

	"github.com/gin-gonic/gin"
)

// Deps are the services the router serves.
type Deps struct {
	Runs      runs.Store
	Selection *selection.Registry
	Dashboard handlers.DashboardOptions
	Log       *logger.Logger

	Production       bool
	AllowedOrigins   []string
	StaticDir        string
	StorageBackend   string
	SelectionBackend string
}

// NewRouter builds the gin engine with every /api route and, when StaticDir
// exists, the single-page frontend.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Dashboard.Plots <= 0 {
		d.Dashboard.Plots = 9
	}
	router := gin.New()
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))
	router.Use(middleware.CORS(d.AllowedOrigins))

	reference := handlers.NewReferenceHandler(d.Runs, d.Log, d.Production)
	runsHandler := handlers.NewRunsHandler(d.Runs, d.Log, d.Production)
	dashboard := handlers.NewDashboardHandler(d.Selection, d.Dashboard, d.Log, d.Production)
	sel := handlers.NewSelectionHandler(d.Selection, d.Dashboard.Plots, d.Log, d.Production)

	router.GET("/health", handlers.Health(d.StorageBackend, d.SelectionBackend))

	api := router.Group("/api")
	{
		api.GET("/business-units", reference.ListBusinessUnits)
		api.POST("/business-units", reference.CreateBusinessUnit)
		api.GET("/products", reference.ListProducts)
		api.GET("/basel-event-types", reference.ListBaselEventTypes)

		api.POST("/actual-runs", runsHandler.CreateActualRun)
		api.GET("/actual-runs", runsHandler.ListActualRuns)
		api.POST("/experiment-runs", runsHandler.CreateExperimentRun)
		api.GET("/experiment-runs", runsHandler.ListExperimentRuns)
		api.DELETE("/experiment-runs/:id", runsHandler.DeleteExperimentRun)
		api.POST("/scenario-runs", runsHandler.CreateScenarioRun)
		api.GET("/scenario-runs", runsHandler.ListScenarioRuns)
		api.PUT("/scenario-runs/:id", runsHandler.UpdateScenarioRun)
		api.POST("/upload-csv", runsHandler.UploadCSV)
		api.POST("/reset-data", runsHandler.ResetData)

		api.GET("/ild", dashboard.ListPlots)
		api.GET("/ild/:id/metrics", dashboard.ListMetrics)
		api.GET("/ild/:id/metrics/:metricId", dashboard.GetMetric)
		api.PUT("/ild/:id/selection", sel.SetMetric)
		api.DELETE("/ild/:id/selection", sel.ClearMetric)
		api.GET("/scenarios", dashboard.ListScenarios)
		api.GET("/scenarios/:id", dashboard.GetScenario)
		api.GET("/items", dashboard.ListItems)
		api.GET("/run-history", dashboard.RunHistory)
		api.GET("/dashboard/summary", dashboard.Summary)

		api.GET("/selections", sel.GetSelections)
		api.DELETE("/selections", sel.ClearAll)
		api.POST("/selections/items/:id", sel.ToggleItem)
		api.DELETE("/selections/items/:id", sel.DeselectItem)
		api.GET("/selections/events", sel.Events)
	}

	serveStatic(router, d.StaticDir, d.Log)
	return router
}

func serveStatic(router *gin.Engine, staticDir string, log *logger.Logger) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	}
	if staticDir == "" {
		router.NoRoute(notFound)
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		log.Info("Static directory not found, skipping static file serving", "dir", staticDir)
		router.NoRoute(notFound)
		return
	}

	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
	// index.html for every non-API route so the frontend router can take over
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})
	log.Info("Serving static files", "dir", staticDir)
}
