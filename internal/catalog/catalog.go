// Package catalog holds the built-in reference data: business units with
// their products and Basel event types.
package catalog

import "capital-risk/internal/model"

// Defaults returns the reference data a fresh or reset store starts with.
// The returned slice is a copy and may be modified.
func Defaults() []model.BusinessUnit {
	return []model.BusinessUnit{
		{
			Name:            "CFs",
			Products:        []string{"Business Enablers"},
			BaselEventTypes: []string{"DTPA", "EPWS", "EDPM - FIFC", "CPBP", "IF", "EDPM - TAX", "EF"},
		},
		{
			Name:            "CIB",
			Products:        []string{"Business Enabler", "Global Markets", "Investment Banking", "TPS"},
			BaselEventTypes: []string{"BDSF", "IF", "CPBP", "EDPM", "EF"},
		},
		{
			Name:            "PBB",
			Products:        []string{"Transactional", "Lending", "VAF", "HL", "Card", "SBFC", "W&I", "Cash"},
			BaselEventTypes: []string{"BDSF", "EDPM", "EF", "IF", "CPBP"},
		},
	}
}

// FallbackBaselEventTypes is the flat list served when no per-unit data is
// available.
func FallbackBaselEventTypes() []string {
	return []string{"BDSF", "EDPM", "EF", "IF", "CPBP", "DTPA", "EPWS", "EDPM - FIFC", "EDPM - TAX"}
}

// Names lists the business unit names of units.
func Names(units []model.BusinessUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name)
	}
	return out
}

// Products returns the products of businessUnit, or every product
// (de-duplicated, first occurrence order) when the unit is empty or unknown.
func Products(units []model.BusinessUnit, businessUnit string) []string {
	return pick(units, businessUnit, func(u model.BusinessUnit) []string { return u.Products })
}

// BaselEventTypes mirrors Products for Basel event types.
func BaselEventTypes(units []model.BusinessUnit, businessUnit string) []string {
	return pick(units, businessUnit, func(u model.BusinessUnit) []string { return u.BaselEventTypes })
}

func pick(units []model.BusinessUnit, businessUnit string, field func(model.BusinessUnit) []string) []string {
	if businessUnit != "" {
		for _, u := range units {
			if u.Name == businessUnit {
				return append([]string{}, field(u)...)
			}
		}
	}
	return Unique(func(yield func(string)) {
		for _, u := range units {
			for _, v := range field(u) {
				yield(v)
			}
		}
	})
}

// Unique collects the values produced by each, dropping repeats.
func Unique(each func(yield func(string))) []string {
	seen := map[string]bool{}
	out := []string{}
	each(func(v string) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	})
	return out
}
