package models

import "capital-risk/internal/model"

// ToggleItemRequest is the optional body of POST /api/selections/items/:id.
type ToggleItemRequest struct {
	Type model.ItemType `json:"type"`
}

// SetMetricRequest is the body of PUT /api/ild/:id/selection. A null
// metricId clears the plot.
type SetMetricRequest struct {
	MetricID *int `json:"metricId"`
}

// UpdateScenarioRunRequest is the body of PUT /api/scenario-runs/:id.
type UpdateScenarioRunRequest = model.ScenarioRunUpdate

// MetricsQuery filters the metric table of one ILD plot.
type MetricsQuery struct {
	Q            string `form:"q"`
	Distribution string `form:"distribution"`
	Percentile   string `form:"percentile"`
	// Sort is aic, rwa_x or lambda; empty keeps generation order.
	Sort string `form:"sort"`
}

// ScenariosQuery filters the scenario list.
type ScenariosQuery struct {
	Q        string `form:"q"`
	Category string `form:"category"`
	Count    int    `form:"count"`
}

// CatalogQuery is the optional business-unit filter on reference lists.
type CatalogQuery struct {
	BusinessUnit string `form:"business_unit"`
}
