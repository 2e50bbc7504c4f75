package model

// FrequencyValues are the 1-in-N year loss values attached to a run.
// The JSON keys match the CSV upload columns.
type FrequencyValues struct {
	OneIn2  string `json:"1in2"`
	OneIn5  string `json:"1in5"`
	OneIn10 string `json:"1in10"`
	OneIn20 string `json:"1in20"`
}

func (v FrequencyValues) IsZero() bool {
	return v == FrequencyValues{}
}

// Classification shared by every capital run.
type RunBase struct {
	BusinessUnit   string `json:"business_unit"`
	Product        string `json:"product"`
	BaselEventType string `json:"basel_event_type"`
	Description    string `json:"description,omitempty"`
}

type ActualRun struct {
	RunBase
	RunDate   string `json:"run_date"`
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ExperimentRun struct {
	RunBase
	ExperimentName string           `json:"experiment_name"`
	Values         *FrequencyValues `json:"values,omitempty"`
	ID             string           `json:"id,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
}

// Default status of a newly created scenario run.
const ScenarioRunRunning = "running"

type ScenarioRun struct {
	Name         string `json:"name"`
	BusinessUnit string `json:"business_unit"`
	Product      string `json:"product"`
	Status       string `json:"status,omitempty"`
	ID           string `json:"id,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type ScenarioRunUpdate struct {
	Status string `json:"status"`
}

// BusinessUnit is a reference-data entry with its products and Basel event types.
type BusinessUnit struct {
	Name            string   `json:"name" yaml:"name"`
	Products        []string `json:"products" yaml:"products"`
	BaselEventTypes []string `json:"baselEventTypes" yaml:"basel_event_types"`
}

// RunEntry is the form shape submitted from the capital-runs pages.
type RunEntry struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	BusinessUnit   string          `json:"businessUnit"`
	Date           string          `json:"date"`
	Product        string          `json:"product"`
	BaselEventType string          `json:"baselEventType"`
	Values         FrequencyValues `json:"values"`
}

// ExperimentRun converts the form entry into an experiment run request.
func (e RunEntry) ExperimentRun() ExperimentRun {
	run := ExperimentRun{
		RunBase: RunBase{
			BusinessUnit:   e.BusinessUnit,
			Product:        e.Product,
			BaselEventType: e.BaselEventType,
		},
		ExperimentName: e.Name,
		ID:             e.ID,
	}
	if !e.Values.IsZero() {
		v := e.Values
		run.Values = &v
	}
	return run
}

// ActualRun converts the form entry into an actual run request.
func (e RunEntry) ActualRun() ActualRun {
	return ActualRun{
		RunBase: RunBase{
			BusinessUnit:   e.BusinessUnit,
			Product:        e.Product,
			BaselEventType: e.BaselEventType,
			Description:    e.Name,
		},
		RunDate: e.Date,
		ID:      e.ID,
	}
}

// CreateResult is the response body of every create/update/delete call.
type CreateResult struct {
	Success     bool   `json:"success"`
	ID          string `json:"id,omitempty"`
	Message     string `json:"message,omitempty"`
	RunsCreated int    `json:"runs_created,omitempty"`
}

// HistoryRun is one row of the run-history view.
type HistoryRun struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	BusinessUnit  string  `json:"businessUnit"`
	Frequency     string  `json:"frequency"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	CapitalAmount int64   `json:"capitalAmount"`
	Change        float64 `json:"change"`
}

func (r HistoryRun) SearchFields() []string {
	return []string{r.Name, r.BusinessUnit, r.Frequency}
}

func (r HistoryRun) FacetValue(facet string) string {
	switch facet {
	case FacetType:
		return r.Type
	case FacetBusinessUnit:
		return r.BusinessUnit
	case FacetStatus:
		return r.Status
	}
	return ""
}
