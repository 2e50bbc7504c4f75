package models

import (
	"capital-risk/internal/analysis"
	"capital-risk/internal/model"
)

// BusinessUnitsResponse is the body of GET /api/business-units.
type BusinessUnitsResponse struct {
	BusinessUnits []string `json:"business_units"`
}

// ProductsResponse is the body of GET /api/products.
type ProductsResponse struct {
	Products []string `json:"products"`
}

// BaselEventTypesResponse is the body of GET /api/basel-event-types.
type BaselEventTypesResponse struct {
	BaselEventTypes []string `json:"basel_event_types"`
}

// RunsResponse wraps every run listing.
type RunsResponse[T any] struct {
	Runs []T `json:"runs"`
}

type (
	ActualRunsResponse     = RunsResponse[model.ActualRun]
	ExperimentRunsResponse = RunsResponse[model.ExperimentRun]
	ScenarioRunsResponse   = RunsResponse[model.ScenarioRun]
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Selection string `json:"selection"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ItemView is a selection-table row with its current selection state.
type ItemView struct {
	model.Item
	Selected bool `json:"selected"`
}

// ItemsResponse is the body of GET /api/items.
type ItemsResponse struct {
	Items    []ItemView `json:"items"`
	Total    int        `json:"total"`
	Filtered bool       `json:"filtered"`
}

// MetricsResponse is the metric table of one ILD plot.
type MetricsResponse struct {
	ILDID    int            `json:"ildId"`
	Selected *int           `json:"selectedMetricId"`
	Items    []model.Metric `json:"items"`
	Total    int            `json:"total"`
	Filtered bool           `json:"filtered"`
}

// SelectionCounts reports how many items of each type are selected and the caps.
type SelectionCounts struct {
	ILD           int `json:"ild"`
	Scenario      int `json:"scenario"`
	ILDLimit      int `json:"ildLimit"`
	ScenarioLimit int `json:"scenarioLimit"`
}

// SelectionsResponse is the body of GET /api/selections and of every
// selection mutation.
type SelectionsResponse struct {
	Items   []model.SelectedItem   `json:"items"`
	Metrics []model.SelectedMetric `json:"metrics"`
	Counts  SelectionCounts        `json:"counts"`
}

// ToggleResponse is the body of POST /api/selections/items/:id.
type ToggleResponse struct {
	ID       int                `json:"id"`
	Selected bool               `json:"selected"`
	State    SelectionsResponse `json:"state"`
}

// PlotsResponse is the body of GET /api/ild.
type PlotsResponse struct {
	Plots    []analysis.PlotSummary `json:"plots"`
	Selected int                    `json:"selected"`
	Total    int                    `json:"total"`
}

// ScenarioResponse is the body of GET /api/scenarios/:id.
type ScenarioResponse struct {
	Scenario   model.Scenario              `json:"scenario"`
	Comparison analysis.ScenarioComparison `json:"comparison"`
}
