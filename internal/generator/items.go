package generator

import (
	"fmt"

	"capital-risk/internal/model"
)

const (
	ILDItemCount      = 20
	ScenarioItemCount = 50
	// ScenarioItemOffset keeps scenario item ids clear of ILD ids.
	ScenarioItemOffset = 100
)

// Items returns the selection-table rows: ILD plots 1..20 followed by
// scenarios with ids 101..150.
func Items() []model.Item {
	out := make([]model.Item, 0, ILDItemCount+ScenarioItemCount)
	for i := 1; i <= ILDItemCount; i++ {
		out = append(out, newItem(i, i, model.ItemILD, fmt.Sprintf("ILD Plot %d", i)))
	}
	for i := 1; i <= ScenarioItemCount; i++ {
		out = append(out, newItem(i+ScenarioItemOffset, i, model.ItemScenario, fmt.Sprintf("Scenario %d", i)))
	}
	return out
}

// ItemByID looks up a selection-table row.
func ItemByID(id int) (model.Item, bool) {
	for _, it := range Items() {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

func newItem(id, n int, typ model.ItemType, name string) model.Item {
	return model.Item{
		ID:       id,
		Name:     name,
		Type:     typ,
		Category: itemCategory(n),
		Date:     fmt.Sprintf("2023-%02d-%02d", n%12+1, n%28+1),
		Status:   itemStatus(n),
	}
}

func itemCategory(n int) string {
	switch n % 4 {
	case 0:
		return "Financial"
	case 1:
		return "Operational"
	case 2:
		return "Market"
	default:
		return "Risk"
	}
}

func itemStatus(n int) model.ItemStatus {
	switch {
	case n%5 == 0:
		return model.StatusArchived
	case n%3 == 0:
		return model.StatusPending
	default:
		return model.StatusActive
	}
}
