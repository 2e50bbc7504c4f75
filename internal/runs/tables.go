package runs

import "capital-risk/internal/model"

// Column layouts shared by the CSV files and the SQL tables.
var (
	actualColumns = []string{
		"id", "business_unit", "product", "basel_event_type", "run_date", "description", "created_at",
	}
	experimentColumns = []string{
		"id", "business_unit", "product", "basel_event_type", "experiment_name", "description", "created_at",
		"one_in_2", "one_in_5", "one_in_10", "one_in_20",
	}
	scenarioColumns = []string{
		"id", "name", "business_unit", "product", "status", "created_at",
	}
	businessUnitColumns = []string{"name"}
	productColumns      = []string{"business_unit", "product"}
	baselColumns        = []string{"business_unit", "basel_event_type"}
)

func actualRow(r model.ActualRun) []string {
	return []string{r.ID, r.BusinessUnit, r.Product, r.BaselEventType, r.RunDate, r.Description, r.CreatedAt}
}

func actualFrom(row map[string]string) model.ActualRun {
	return model.ActualRun{
		RunBase: model.RunBase{
			BusinessUnit:   row["business_unit"],
			Product:        row["product"],
			BaselEventType: row["basel_event_type"],
			Description:    row["description"],
		},
		RunDate:   row["run_date"],
		ID:        row["id"],
		CreatedAt: row["created_at"],
	}
}

func experimentRow(r model.ExperimentRun) []string {
	var v model.FrequencyValues
	if r.Values != nil {
		v = *r.Values
	}
	return []string{
		r.ID, r.BusinessUnit, r.Product, r.BaselEventType, r.ExperimentName, r.Description, r.CreatedAt,
		v.OneIn2, v.OneIn5, v.OneIn10, v.OneIn20,
	}
}

func experimentFrom(row map[string]string) model.ExperimentRun {
	run := model.ExperimentRun{
		RunBase: model.RunBase{
			BusinessUnit:   row["business_unit"],
			Product:        row["product"],
			BaselEventType: row["basel_event_type"],
			Description:    row["description"],
		},
		ExperimentName: row["experiment_name"],
		ID:             row["id"],
		CreatedAt:      row["created_at"],
	}
	v := model.FrequencyValues{
		OneIn2:  row["one_in_2"],
		OneIn5:  row["one_in_5"],
		OneIn10: row["one_in_10"],
		OneIn20: row["one_in_20"],
	}
	if !v.IsZero() {
		run.Values = &v
	}
	return run
}

func scenarioRow(r model.ScenarioRun) []string {
	return []string{r.ID, r.Name, r.BusinessUnit, r.Product, r.Status, r.CreatedAt}
}

func scenarioFrom(row map[string]string) model.ScenarioRun {
	return model.ScenarioRun{
		Name:         row["name"],
		BusinessUnit: row["business_unit"],
		Product:      row["product"],
		Status:       row["status"],
		ID:           row["id"],
		CreatedAt:    row["created_at"],
	}
}

// pairs flattens each unit's values into (business_unit, value) rows.
func pairs(units []model.BusinessUnit, field func(model.BusinessUnit) []string) [][]string {
	var out [][]string
	for _, u := range units {
		for _, v := range field(u) {
			out = append(out, []string{u.Name, v})
		}
	}
	return out
}

func unitProducts(u model.BusinessUnit) []string { return u.Products }
func unitBasel(u model.BusinessUnit) []string    { return u.BaselEventTypes }

// referenceValues answers a products/basel lookup from stored pairs. With no
// stored pairs at all it falls back to the built-in catalog; a unit with no
// pairs gets every stored value.
func referenceValues(rows [][]string, businessUnit string, fallback func() []string) []string {
	if len(rows) == 0 {
		return fallback()
	}
	seen := map[string]bool{}
	out := []string{}
	for _, r := range rows {
		if businessUnit != "" && r[0] != businessUnit {
			continue
		}
		if !seen[r[1]] {
			seen[r[1]] = true
			out = append(out, r[1])
		}
	}
	if len(out) == 0 && businessUnit != "" {
		return referenceValues(rows, "", fallback)
	}
	return out
}
