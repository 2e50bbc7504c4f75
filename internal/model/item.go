package model

import "strconv"

// Facet names understood by the filter evaluator.
const (
	FacetType         = "type"
	FacetStatus       = "status"
	FacetCategory     = "category"
	FacetDistribution = "distribution"
	FacetPercentile   = "percentile"
	FacetBusinessUnit = "business_unit"
)

// Scenario categories, in generator order.
var Categories = []string{"Financial", "Operational", "Market", "Risk"}

type ItemType string

const (
	ItemILD      ItemType = "ILD"
	ItemScenario ItemType = "Scenario"
)

func (t ItemType) Valid() bool {
	return t == ItemILD || t == ItemScenario
}

type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusPending  ItemStatus = "pending"
	StatusArchived ItemStatus = "archived"
)

// Item is a selectable row of the dashboard selection table.
type Item struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Type     ItemType   `json:"type"`
	Category string     `json:"category"`
	Date     string     `json:"date"`
	Status   ItemStatus `json:"status"`
}

// SelectedItem is the persisted form of a selected Item.
type SelectedItem struct {
	ID   int      `json:"id"`
	Type ItemType `json:"type"`
}

func (i Item) SearchFields() []string { return []string{i.Name, i.Category} }

func (i Item) FacetValue(facet string) string {
	switch facet {
	case FacetType:
		return string(i.Type)
	case FacetStatus:
		return string(i.Status)
	case FacetCategory:
		return i.Category
	}
	return ""
}

func (m Metric) SearchFields() []string { return []string{m.Distribution} }

func (m Metric) FacetValue(facet string) string {
	switch facet {
	case FacetDistribution:
		return m.Distribution
	case FacetPercentile:
		return strconv.Itoa(m.Percentile)
	}
	return ""
}

func (s Scenario) SearchFields() []string { return []string{s.Title, s.Description, s.Category} }

func (s Scenario) FacetValue(facet string) string {
	if facet == FacetCategory {
		return s.Category
	}
	return ""
}
