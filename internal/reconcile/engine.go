// Package reconcile converges one remote resource to a caller-declared state.
// A run resolves the tenant scope, fetches current state once, diffs it
// against the normalized desired fields, and applies at most one mutation
// unless running in dry-run mode.
package reconcile

import (
	"context"
	"log/slog"

	"duoctl/internal/domain"
)

// AdminAPI is the remote API client the engine drives. Every call is
// synchronous and its failure is fatal for the run.
type AdminAPI interface {
	AccountLister
	CreateChildAccount(ctx context.Context, name string) (domain.Account, error)
	DeleteChildAccount(ctx context.Context, accountID string) error

	GetIntegration(ctx context.Context, scope domain.TenantScope, ikey string) (domain.Integration, error)
	ListIntegrations(ctx context.Context, scope domain.TenantScope) ([]domain.Integration, error)
	CreateIntegration(ctx context.Context, scope domain.TenantScope, fields domain.FieldSet) (domain.Integration, error)
	UpdateIntegration(ctx context.Context, scope domain.TenantScope, ikey string, fields domain.FieldSet) error
	DeleteIntegration(ctx context.Context, scope domain.TenantScope, ikey string) error

	GetSettings(ctx context.Context, scope domain.TenantScope) (domain.Settings, error)
	UpdateSettings(ctx context.Context, scope domain.TenantScope, fields domain.FieldSet) error

	GetBillingEdition(ctx context.Context, accountID string) (domain.Edition, error)
	SetBillingEdition(ctx context.Context, accountID string, edition domain.EditionName) error
}

// Request describes one reconciliation.
type Request struct {
	// Tenant is the child account name to scope calls to; empty means the
	// caller's own account.
	Tenant  string
	State   domain.State
	Mode    domain.Mode
	Desired domain.Resource
}

// Engine reconciles resources against the admin API.
type Engine struct {
	api    AdminAPI
	logger *slog.Logger
}

// New creates an Engine. A nil logger discards output.
func New(api AdminAPI, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{api: api, logger: logger}
}

// Reconcile converges the resource described by req. It always returns
// exactly one Outcome; on failure the error is a *domain.ReconcileError that
// carries the same partial Outcome.
func (e *Engine) Reconcile(ctx context.Context, req Request) (domain.Outcome, error) {
	r := newRun(e, req)

	if err := ValidateRequest(req); err != nil {
		return r.fail(domain.StepValidate, err)
	}

	scope, err := ResolveTenant(ctx, e.api, req.Tenant)
	if err != nil {
		return r.fail(domain.StepResolve, err)
	}
	r.setScope(scope)

	switch d := req.Desired.(type) {
	case domain.Account:
		return r.account(ctx, d)
	case domain.Integration:
		return r.integration(ctx, d)
	case domain.Settings:
		return r.settings(ctx, d)
	case domain.Edition:
		return r.edition(ctx, d)
	default:
		return r.fail(domain.StepValidate, domain.ErrValidation("kind", "unsupported resource %T", req.Desired))
	}
}

// ValidateRequest rejects requests outside the accepted domain before any
// API call is issued.
func ValidateRequest(req Request) error {
	if req.Desired == nil {
		return domain.ErrValidation("kind", "no resource given")
	}
	kind := req.Desired.Kind()
	if !kind.Supports(req.State) {
		return domain.ErrValidation("state", "state %q is not supported for %s resources", req.State, kind)
	}

	switch d := req.Desired.(type) {
	case domain.Account:
		if req.Tenant != "" {
			return domain.ErrValidation("tenant", "tenant scope does not apply to account resources")
		}
		if req.State != domain.StateQuery && d.Name == "" {
			return domain.ErrValidation("name", "account name is required")
		}
	case domain.Integration:
		if d.IKey != "" || req.State == domain.StateQuery {
			return nil
		}
		if d.Name == nil || *d.Name == "" {
			return domain.ErrValidation("name", "integration name is required when app_ikey is not given")
		}
	case domain.Edition:
		if d.AccountID == "" && req.Tenant == "" {
			return domain.ErrValidation("account_id", "account_id or tenant is required for edition resources")
		}
		if d.Edition != nil && *d.Edition != "" && !d.Edition.Valid() {
			return domain.ErrValidation("edition", "edition must be one of %v, not %s", domain.Editions, *d.Edition)
		}
	}
	return nil
}
