package reconcile

import (
	"context"
	"errors"

	"duoctl/internal/domain"
)

// notFound is implemented by client errors that signal a missing record.
type notFound interface {
	NotFound() bool
}

func isNotFound(err error) bool {
	var nf notFound
	return errors.As(err, &nf) && nf.NotFound()
}

// === Accounts ===

func (r *run) account(ctx context.Context, d domain.Account) (domain.Outcome, error) {
	accounts, err := r.api.ListChildAccounts(ctx)
	if err != nil {
		return r.fail(domain.StepFetch, r.transport("listChildAccounts", err))
	}
	r.advance(domain.PhaseFetched)

	if r.req.State == domain.StateQuery {
		items := make([]map[string]any, 0, len(accounts))
		for _, a := range accounts {
			items = append(items, accountFields(a).Map())
		}
		r.out.Items = items
		return r.skip()
	}

	current, found := findAccount(accounts, d.Name)
	r.advance(domain.PhaseDiffed)

	switch {
	case r.req.State == domain.StatePresent && found:
		r.set(accountFields(current).Map())
		return r.skip()
	case r.req.State == domain.StatePresent:
		r.set(map[string]any{"name": d.Name})
		changes := []domain.FieldDiff{{Field: "name", NewValue: d.Name}}
		return r.mutate(domain.OpCreate, changes, func() (map[string]any, error) {
			created, err := r.api.CreateChildAccount(ctx, d.Name)
			if err != nil {
				return nil, r.transport("createChildAccount", err)
			}
			return map[string]any{
				"account_id":   created.AccountID,
				"api_hostname": created.APIHostname,
			}, nil
		})
	case found:
		r.set(map[string]any{"name": current.Name, "account_id": current.AccountID})
		changes := []domain.FieldDiff{{Field: "name", OldValue: current.Name}}
		return r.mutate(domain.OpDelete, changes, func() (map[string]any, error) {
			if err := r.api.DeleteChildAccount(ctx, current.AccountID); err != nil {
				return nil, r.transport("deleteChildAccount", err)
			}
			return nil, nil
		})
	default:
		r.set(map[string]any{"name": d.Name})
		return r.skip()
	}
}

// === Integrations ===

func (r *run) integration(ctx context.Context, d domain.Integration) (domain.Outcome, error) {
	if d.IKey != "" {
		return r.keyedIntegration(ctx, d)
	}

	list, err := r.api.ListIntegrations(ctx, r.scope)
	if err != nil {
		return r.fail(domain.StepFetch, r.transport("listIntegrations", err))
	}
	r.advance(domain.PhaseFetched)

	if r.req.State == domain.StateQuery {
		items := make([]map[string]any, 0, len(list))
		for _, in := range list {
			items = append(items, integrationRecord(in))
		}
		r.out.Items = items
		return r.skip()
	}

	current, found := findIntegration(list, *d.Name)
	desired := Normalize(d).Truthy()
	r.advance(domain.PhaseDiffed)

	switch {
	case r.req.State == domain.StatePresent && found:
		r.set(Normalize(current).Project(desired.Names()).Map())
		r.set(integrationKeys(current))
		return r.skip()
	case r.req.State == domain.StatePresent:
		if d.Type == nil || *d.Type == "" {
			return r.fail(domain.StepValidate, domain.ErrValidation("type", "integration type is required to create an integration"))
		}
		r.set(desired.Map())
		changes := Diff(desired, nil).Changes
		return r.mutate(domain.OpCreate, changes, func() (map[string]any, error) {
			created, err := r.api.CreateIntegration(ctx, r.scope, desired)
			if err != nil {
				return nil, r.transport("createIntegration", err)
			}
			return integrationKeys(created), nil
		})
	case found:
		r.set(integrationKeys(current))
		r.set(map[string]any{"name": *d.Name})
		return r.deleteIntegration(ctx, current.IKey)
	default:
		r.set(map[string]any{"name": *d.Name})
		return r.skip()
	}
}

func (r *run) keyedIntegration(ctx context.Context, d domain.Integration) (domain.Outcome, error) {
	r.set(map[string]any{"integration_key": d.IKey})

	current, err := r.api.GetIntegration(ctx, r.scope, d.IKey)
	if err != nil {
		if r.req.State == domain.StateAbsent && isNotFound(err) {
			r.advance(domain.PhaseFetched)
			r.advance(domain.PhaseDiffed)
			return r.skip()
		}
		return r.fail(domain.StepFetch, r.transport("getIntegration", err))
	}
	r.advance(domain.PhaseFetched)

	switch r.req.State {
	case domain.StateQuery:
		r.set(integrationRecord(current))
		return r.skip()
	case domain.StateAbsent:
		r.advance(domain.PhaseDiffed)
		return r.deleteIntegration(ctx, d.IKey)
	}

	diff := Diff(Normalize(d), Normalize(current))
	r.advance(domain.PhaseDiffed)
	r.set(diff.Applied.Map())
	if !diff.Changed {
		return r.skip()
	}
	return r.mutate(domain.OpUpdate, diff.Changes, func() (map[string]any, error) {
		if err := r.api.UpdateIntegration(ctx, r.scope, d.IKey, diff.Payload); err != nil {
			return nil, r.transport("updateIntegration", err)
		}
		return nil, nil
	})
}

func (r *run) deleteIntegration(ctx context.Context, ikey string) (domain.Outcome, error) {
	changes := []domain.FieldDiff{{Field: "integration_key", OldValue: ikey}}
	return r.mutate(domain.OpDelete, changes, func() (map[string]any, error) {
		if err := r.api.DeleteIntegration(ctx, r.scope, ikey); err != nil {
			return nil, r.transport("deleteIntegration", err)
		}
		return nil, nil
	})
}

func findIntegration(list []domain.Integration, name string) (domain.Integration, bool) {
	for _, in := range list {
		if in.Name != nil && *in.Name == name {
			return in, true
		}
	}
	return domain.Integration{}, false
}

func integrationKeys(in domain.Integration) map[string]any {
	m := map[string]any{}
	if in.IKey != "" {
		m["integration_key"] = in.IKey
	}
	if in.SKey != "" {
		m["secret_key"] = in.SKey
	}
	return m
}

// integrationRecord returns the record as the API sent it, or the normalized
// view when the raw form is unavailable.
func integrationRecord(in domain.Integration) map[string]any {
	if in.Raw != nil {
		return in.Raw
	}
	m := Normalize(in).Map()
	for k, v := range integrationKeys(in) {
		m[k] = v
	}
	return m
}

// === Settings ===

func (r *run) settings(ctx context.Context, d domain.Settings) (domain.Outcome, error) {
	current, err := r.api.GetSettings(ctx, r.scope)
	if err != nil {
		return r.fail(domain.StepFetch, r.transport("getAccountSettings", err))
	}
	r.advance(domain.PhaseFetched)

	if r.req.State == domain.StateQuery {
		if current.Raw != nil {
			r.set(current.Raw)
		} else {
			r.set(Normalize(current).Map())
		}
		return r.skip()
	}

	diff := Diff(Normalize(d), Normalize(current))
	r.advance(domain.PhaseDiffed)
	r.set(diff.Applied.Map())
	if !diff.Changed {
		return r.skip()
	}
	return r.mutate(domain.OpUpdate, diff.Changes, func() (map[string]any, error) {
		if err := r.api.UpdateSettings(ctx, r.scope, diff.Payload); err != nil {
			return nil, r.transport("updateAccountSettings", err)
		}
		return nil, nil
	})
}

// === Billing edition ===

func (r *run) edition(ctx context.Context, d domain.Edition) (domain.Outcome, error) {
	accountID := d.AccountID
	if accountID == "" {
		accountID = r.scope.AccountID
	}
	r.out.AccountID = accountID
	r.set(map[string]any{"account_id": accountID})

	current, err := r.api.GetBillingEdition(ctx, accountID)
	if err != nil {
		return r.fail(domain.StepFetch, r.transport("getBillingEdition", err))
	}
	r.advance(domain.PhaseFetched)

	var have domain.EditionName
	if current.Edition != nil {
		have = *current.Edition
	}

	if r.req.State == domain.StateQuery || d.Edition == nil || *d.Edition == "" || *d.Edition == have {
		r.advance(domain.PhaseDiffed)
		r.set(map[string]any{"edition": string(have)})
		return r.skip()
	}

	want := *d.Edition
	r.advance(domain.PhaseDiffed)
	r.set(map[string]any{"edition": string(want)})
	changes := []domain.FieldDiff{{Field: "edition", OldValue: string(have), NewValue: string(want)}}
	return r.mutate(domain.OpUpdate, changes, func() (map[string]any, error) {
		if err := r.api.SetBillingEdition(ctx, accountID, want); err != nil {
			return nil, r.transport("setBillingEdition", err)
		}
		return nil, nil
	})
}
