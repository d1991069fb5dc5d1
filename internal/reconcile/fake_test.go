package reconcile

import (
	"context"
	"errors"
	"fmt"

	"duoctl/internal/domain"
)

// fakeAPI is an in-memory AdminAPI that records every call it receives.
type fakeAPI struct {
	accounts     []domain.Account
	integrations []domain.Integration
	settings     domain.Settings
	editions     map[string]domain.EditionName

	// failOn makes the named call return an error.
	failOn map[string]error

	calls []string
	// payloads holds the fields sent by the most recent update or create.
	payloads domain.FieldSet
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{editions: map[string]domain.EditionName{}, failOn: map[string]error{}}
}

type notFoundErr struct{}

func (notFoundErr) Error() string  { return "resource not found" }
func (notFoundErr) NotFound() bool { return true }

func (f *fakeAPI) record(name string) error {
	f.calls = append(f.calls, name)
	return f.failOn[name]
}

func (f *fakeAPI) mutations() []string {
	var out []string
	for _, c := range f.calls {
		switch c {
		case "createChildAccount", "deleteChildAccount", "createIntegration",
			"updateIntegration", "deleteIntegration", "updateAccountSettings", "setBillingEdition":
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) ListChildAccounts(_ context.Context) ([]domain.Account, error) {
	if err := f.record("listChildAccounts"); err != nil {
		return nil, err
	}
	return append([]domain.Account(nil), f.accounts...), nil
}

func (f *fakeAPI) CreateChildAccount(_ context.Context, name string) (domain.Account, error) {
	if err := f.record("createChildAccount"); err != nil {
		return domain.Account{}, err
	}
	a := domain.Account{Name: name, AccountID: fmt.Sprintf("DA%04d", len(f.accounts)+1), APIHostname: "api-child.example.com"}
	f.accounts = append(f.accounts, a)
	return a, nil
}

func (f *fakeAPI) DeleteChildAccount(_ context.Context, accountID string) error {
	if err := f.record("deleteChildAccount"); err != nil {
		return err
	}
	for i, a := range f.accounts {
		if a.AccountID == accountID {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			return nil
		}
	}
	return errors.New("no such account")
}

func (f *fakeAPI) GetIntegration(_ context.Context, _ domain.TenantScope, ikey string) (domain.Integration, error) {
	if err := f.record("getIntegration"); err != nil {
		return domain.Integration{}, err
	}
	for _, in := range f.integrations {
		if in.IKey == ikey {
			return in, nil
		}
	}
	return domain.Integration{}, notFoundErr{}
}

func (f *fakeAPI) ListIntegrations(_ context.Context, _ domain.TenantScope) ([]domain.Integration, error) {
	if err := f.record("listIntegrations"); err != nil {
		return nil, err
	}
	return append([]domain.Integration(nil), f.integrations...), nil
}

func (f *fakeAPI) CreateIntegration(_ context.Context, _ domain.TenantScope, fields domain.FieldSet) (domain.Integration, error) {
	if err := f.record("createIntegration"); err != nil {
		return domain.Integration{}, err
	}
	f.payloads = fields
	in := domain.Integration{IKey: "DINEW", SKey: "secret"}
	if v, ok := fields.Get("name"); ok {
		in.Name = domain.Ptr(v.(string))
	}
	if v, ok := fields.Get("type"); ok {
		in.Type = domain.Ptr(v.(string))
	}
	f.integrations = append(f.integrations, in)
	return in, nil
}

func (f *fakeAPI) UpdateIntegration(_ context.Context, _ domain.TenantScope, ikey string, fields domain.FieldSet) error {
	if err := f.record("updateIntegration"); err != nil {
		return err
	}
	f.payloads = fields
	for i, in := range f.integrations {
		if in.IKey != ikey {
			continue
		}
		if v, ok := fields.Get("name"); ok {
			f.integrations[i].Name = domain.Ptr(v.(string))
		}
		if v, ok := fields.Get("self_service_allowed"); ok {
			f.integrations[i].SelfServiceAllowed = domain.Ptr(v == "1")
		}
	}
	return nil
}

func (f *fakeAPI) DeleteIntegration(_ context.Context, _ domain.TenantScope, ikey string) error {
	if err := f.record("deleteIntegration"); err != nil {
		return err
	}
	for i, in := range f.integrations {
		if in.IKey == ikey {
			f.integrations = append(f.integrations[:i], f.integrations[i+1:]...)
			return nil
		}
	}
	return notFoundErr{}
}

func (f *fakeAPI) GetSettings(_ context.Context, _ domain.TenantScope) (domain.Settings, error) {
	if err := f.record("getAccountSettings"); err != nil {
		return domain.Settings{}, err
	}
	return f.settings, nil
}

func (f *fakeAPI) UpdateSettings(_ context.Context, _ domain.TenantScope, fields domain.FieldSet) error {
	if err := f.record("updateAccountSettings"); err != nil {
		return err
	}
	f.payloads = fields
	if v, ok := fields.Get("timezone"); ok {
		f.settings.Timezone = domain.Ptr(v.(string))
	}
	if v, ok := fields.Get("lockout_threshold"); ok {
		f.settings.LockoutThreshold = domain.Ptr(v.(int))
	}
	return nil
}

func (f *fakeAPI) GetBillingEdition(_ context.Context, accountID string) (domain.Edition, error) {
	if err := f.record("getBillingEdition"); err != nil {
		return domain.Edition{}, err
	}
	e := f.editions[accountID]
	return domain.Edition{AccountID: accountID, Edition: &e}, nil
}

func (f *fakeAPI) SetBillingEdition(_ context.Context, accountID string, edition domain.EditionName) error {
	if err := f.record("setBillingEdition"); err != nil {
		return err
	}
	f.editions[accountID] = edition
	return nil
}
