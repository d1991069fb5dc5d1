package domain

import "fmt"

// Verdict is the engine's decision about whether a mutation is needed.
type Verdict int

const (
	// VerdictUnchanged means the remote resource already matches.
	VerdictUnchanged Verdict = iota
	// VerdictWouldChange means a mutation is needed but was not applied.
	VerdictWouldChange
	// VerdictChanged means a mutation was applied.
	VerdictChanged
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictUnchanged:
		return "unchanged"
	case VerdictWouldChange:
		return "would-change"
	case VerdictChanged:
		return "changed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unchanged":
		*v = VerdictUnchanged
	case "would-change":
		*v = VerdictWouldChange
	case "changed":
		*v = VerdictChanged
	default:
		return fmt.Errorf("unknown verdict %q", string(b))
	}
	return nil
}

// Phase is a state of the mutation executor.
type Phase string

// Executor phases: Unresolved -> Fetched -> Diffed -> (Skipped | WouldMutate | Mutated) -> Reported.
const (
	PhaseUnresolved  Phase = "unresolved"
	PhaseFetched     Phase = "fetched"
	PhaseDiffed      Phase = "diffed"
	PhaseSkipped     Phase = "skipped"
	PhaseWouldMutate Phase = "would-mutate"
	PhaseMutated     Phase = "mutated"
	PhaseReported    Phase = "reported"
)

// Operation is the mutation an outcome applied or would apply.
type Operation string

// Mutations.
const (
	OpNone   Operation = ""
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// FieldDiff describes a single field change.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Outcome is the uniform result of one reconciliation.
type Outcome struct {
	Changed    bool             `json:"changed"`
	Verdict    Verdict          `json:"verdict"`
	Phase      Phase            `json:"phase"`
	Operation  Operation        `json:"operation,omitempty"`
	Kind       Kind             `json:"kind"`
	State      State            `json:"state"`
	Tenant     string           `json:"tenant,omitempty"`
	AccountID  string           `json:"account_id,omitempty"`
	DryRun     bool             `json:"dry_run"`
	Attributes map[string]any   `json:"attributes"`
	Items      []map[string]any `json:"items,omitempty"`
	Changes    []FieldDiff      `json:"changes,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Failed reports whether the outcome ended in an error.
func (o Outcome) Failed() bool {
	return o.Error != ""
}
