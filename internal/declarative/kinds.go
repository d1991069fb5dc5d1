package declarative

import "duoctl/internal/domain"

// SupportedAPIVersion is the only apiVersion accepted in documents.
const SupportedAPIVersion = "duo/v1"

// ResourceKind is the document-level kind name.
type ResourceKind string

// Document kinds.
const (
	KindAccount     ResourceKind = "Account"
	KindIntegration ResourceKind = "Integration"
	KindSettings    ResourceKind = "Settings"
	KindEdition     ResourceKind = "Edition"
)

var kindMap = map[ResourceKind]domain.Kind{
	KindAccount:     domain.KindAccount,
	KindIntegration: domain.KindIntegration,
	KindSettings:    domain.KindSettings,
	KindEdition:     domain.KindEdition,
}

// Domain returns the engine kind for k.
func (k ResourceKind) Domain() (domain.Kind, bool) {
	d, ok := kindMap[k]
	return d, ok
}

// String returns the lowercase engine name, or the raw value for unknown kinds.
func (k ResourceKind) String() string {
	if d, ok := kindMap[k]; ok {
		return string(d)
	}
	return string(k)
}

// newResource returns an empty typed record for the kind.
func newResource(k ResourceKind) (any, bool) {
	switch k {
	case KindAccount:
		return &domain.Account{}, true
	case KindIntegration:
		return &domain.Integration{}, true
	case KindSettings:
		return &domain.Settings{}, true
	case KindEdition:
		return &domain.Edition{}, true
	default:
		return nil, false
	}
}

// deref turns the pointer returned by newResource into a domain.Resource value.
func deref(v any) domain.Resource {
	switch r := v.(type) {
	case *domain.Account:
		return *r
	case *domain.Integration:
		return *r
	case *domain.Settings:
		return *r
	case *domain.Edition:
		return *r
	default:
		return nil
	}
}
