package domain

import "fmt"

// Kind identifies a type of reconcilable resource.
type Kind string

// Resource kinds.
const (
	KindAccount     Kind = "account"
	KindIntegration Kind = "integration"
	KindSettings    Kind = "settings"
	KindEdition     Kind = "edition"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindAccount, KindIntegration, KindSettings, KindEdition}

// ParseKind converts a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrValidation("kind", "unknown resource kind %q", s)
}

// Singleton reports whether the kind has exactly one instance per account.
func (k Kind) Singleton() bool {
	return k == KindSettings || k == KindEdition
}

// States returns the requested states the kind supports.
func (k Kind) States() []State {
	switch k {
	case KindAccount, KindIntegration:
		return []State{StatePresent, StateAbsent, StateQuery}
	case KindSettings, KindEdition:
		return []State{StatePresent, StateQuery}
	default:
		return nil
	}
}

// Supports reports whether state is valid for the kind.
func (k Kind) Supports(s State) bool {
	for _, st := range k.States() {
		if st == s {
			return true
		}
	}
	return false
}

// State is the caller-requested target state.
type State string

// Requested states.
const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
	StateQuery   State = "query"
)

// ParseState converts a user-supplied state name to a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StatePresent, StateAbsent, StateQuery:
		return State(s), nil
	default:
		return "", ErrValidation("state", "state must be one of present, absent, query, not %q", s)
	}
}

// Mode selects whether mutations are applied.
type Mode int

const (
	// ModeEnforce applies mutations to the remote system.
	ModeEnforce Mode = iota
	// ModeDryRun computes and reports mutations without issuing them.
	ModeDryRun
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeEnforce:
		return "enforce"
	case ModeDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}
