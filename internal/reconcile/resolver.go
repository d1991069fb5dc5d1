package reconcile

import (
	"context"

	"duoctl/internal/domain"
)

// AccountLister lists the child accounts of the parent portal.
type AccountLister interface {
	ListChildAccounts(ctx context.Context) ([]domain.Account, error)
}

// ResolveTenant maps a tenant name to its TenantScope by exact,
// case-sensitive match against the child account list. An empty name
// resolves to the caller's own account without any API call.
func ResolveTenant(ctx context.Context, api AccountLister, name string) (domain.TenantScope, error) {
	if name == "" {
		return domain.TenantScope{}, nil
	}
	accounts, err := api.ListChildAccounts(ctx)
	if err != nil {
		return domain.TenantScope{}, domain.ErrTransport("listChildAccounts", domain.TenantScope{}, err)
	}
	if a, ok := findAccount(accounts, name); ok {
		return domain.ScopeFromAccount(a), nil
	}
	return domain.TenantScope{}, domain.ErrResolution(name)
}

func findAccount(accounts []domain.Account, name string) (domain.Account, bool) {
	for _, a := range accounts {
		if a.Name == name {
			return a, true
		}
	}
	return domain.Account{}, false
}
