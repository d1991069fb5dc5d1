package declarative

import "duoctl/internal/domain"

// Action is the result of reconciling one document that required a change.
type Action struct {
	Operation    domain.Operation
	ResourceKind ResourceKind
	ResourceName string
	FilePath     string
	Changes      []domain.FieldDiff
	Outcome      domain.Outcome
}

// Plan is the ordered result of a run over a set of documents.
type Plan struct {
	// DryRun reports whether actions were only previewed.
	DryRun   bool
	Actions  []Action
	Errors   []PlanError
	Outcomes []domain.Outcome // one per document, in document order
}

// PlanError records a document whose reconciliation failed.
type PlanError struct {
	ResourceKind ResourceKind `json:"resource_type"`
	ResourceName string       `json:"resource_name"`
	Path         string       `json:"path,omitempty"`
	Step         domain.Step  `json:"step,omitempty"`
	Message      string       `json:"message"`
}

// Summary returns counts of creates, updates, deletes, and errors.
func (p *Plan) Summary() PlanSummary {
	var s PlanSummary
	for _, a := range p.Actions {
		switch a.Operation {
		case domain.OpCreate:
			s.Creates++
		case domain.OpUpdate:
			s.Updates++
		case domain.OpDelete:
			s.Deletes++
		}
	}
	s.Errors = len(p.Errors)
	return s
}

// HasChanges returns true if the plan has any actions or errors.
func (p *Plan) HasChanges() bool {
	return len(p.Actions) > 0 || len(p.Errors) > 0
}

// PlanSummary holds counts of planned operations.
type PlanSummary struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
	Errors  int `json:"errors"`
}
