package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoctl/internal/domain"
)

func newTestEngine(api *fakeAPI) *Engine {
	return New(api, nil)
}

func enforce(tenant string, state domain.State, r domain.Resource) Request {
	return Request{Tenant: tenant, State: state, Mode: domain.ModeEnforce, Desired: r}
}

func dryRun(tenant string, state domain.State, r domain.Resource) Request {
	return Request{Tenant: tenant, State: state, Mode: domain.ModeDryRun, Desired: r}
}

func TestReconcile_AccountCreate(t *testing.T) {
	api := newFakeAPI()
	e := newTestEngine(api)

	out, err := e.Reconcile(context.Background(), enforce("", domain.StatePresent, domain.Account{Name: "Acme"}))
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, domain.VerdictChanged, out.Verdict)
	assert.Equal(t, domain.OpCreate, out.Operation)
	assert.Equal(t, domain.PhaseMutated, out.Phase)
	assert.Equal(t, "Acme", out.Attributes["name"])
	assert.Equal(t, "DA0001", out.Attributes["account_id"])
	assert.Equal(t, []string{"createChildAccount"}, api.mutations())
}

func TestReconcile_AccountIdempotent(t *testing.T) {
	api := newFakeAPI()
	e := newTestEngine(api)
	req := enforce("", domain.StatePresent, domain.Account{Name: "Acme"})

	_, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	out, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, domain.VerdictUnchanged, out.Verdict)
	assert.Equal(t, domain.PhaseSkipped, out.Phase)
	assert.Equal(t, "DA0001", out.Attributes["account_id"])
	assert.Len(t, api.mutations(), 1)
}

func TestReconcile_AccountNameIsCaseSensitive(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{{Name: "acme", AccountID: "DA1"}}
	e := newTestEngine(api)

	out, err := e.Reconcile(context.Background(), dryRun("", domain.StatePresent, domain.Account{Name: "Acme"}))
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, domain.OpCreate, out.Operation)
}

func TestReconcile_AccountAbsent(t *testing.T) {
	t.Run("deletes existing", func(t *testing.T) {
		api := newFakeAPI()
		api.accounts = []domain.Account{{Name: "Acme", AccountID: "DA1"}}

		out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Account{Name: "Acme"}))
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, domain.OpDelete, out.Operation)
		assert.Equal(t, "DA1", out.Attributes["account_id"])
		assert.Empty(t, api.accounts)
	})

	t.Run("already absent", func(t *testing.T) {
		api := newFakeAPI()

		out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Account{Name: "Acme"}))
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.Empty(t, api.mutations())
	})
}

func TestReconcile_AccountQuery(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{
		{Name: "Acme", AccountID: "DA1", APIHostname: "api-1.example.com"},
		{Name: "Globex", AccountID: "DA2", APIHostname: "api-2.example.com"},
	}

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StateQuery, domain.Account{}))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Globex", out.Items[1]["name"])
	assert.Empty(t, api.mutations())
}

func TestReconcile_AccountRejectsTenant(t *testing.T) {
	api := newFakeAPI()

	_, err := newTestEngine(api).Reconcile(context.Background(), enforce("Acme", domain.StatePresent, domain.Account{Name: "x"}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, api.calls)
}

func TestReconcile_SettingsTimezone(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC"), LockoutThreshold: domain.Ptr(10)}
	e := newTestEngine(api)

	desired := domain.Settings{Timezone: domain.Ptr("America/New_York")}
	out, err := e.Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, domain.OpUpdate, out.Operation)
	assert.Equal(t, domain.FieldSet{{Name: "timezone", Value: "America/New_York"}}, api.payloads)
	assert.Equal(t, map[string]any{"timezone": "America/New_York"}, out.Attributes)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, domain.FieldDiff{Field: "timezone", OldValue: "UTC", NewValue: "America/New_York"}, out.Changes[0])

	out, err = e.Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, []string{"updateAccountSettings"}, api.mutations())
}

func TestReconcile_SettingsFalsyFieldsExcluded(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{LockoutThreshold: domain.Ptr(10), PushEnabled: domain.Ptr(true)}

	desired := domain.Settings{LockoutThreshold: domain.Ptr(0), PushEnabled: domain.Ptr(false), SMSMessage: domain.Ptr("")}
	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Empty(t, out.Attributes)
	assert.Empty(t, api.mutations())
}

func TestReconcile_SettingsOnlyDifferingFieldsSent(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC"), LockoutThreshold: domain.Ptr(10)}

	desired := domain.Settings{Timezone: domain.Ptr("UTC"), LockoutThreshold: domain.Ptr(5)}
	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)

	assert.Equal(t, domain.FieldSet{{Name: "lockout_threshold", Value: 5}}, api.payloads)
	assert.Equal(t, map[string]any{"timezone": "UTC", "lockout_threshold": 5}, out.Attributes)
}

func TestReconcile_DryRunNeverMutates(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{{Name: "Acme", AccountID: "DA1"}}
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC")}
	api.integrations = []domain.Integration{{IKey: "DI1", Name: domain.Ptr("vpn"), Type: domain.Ptr("sso")}}
	e := newTestEngine(api)

	reqs := []Request{
		dryRun("", domain.StatePresent, domain.Account{Name: "Globex"}),
		dryRun("", domain.StateAbsent, domain.Account{Name: "Acme"}),
		dryRun("Acme", domain.StatePresent, domain.Settings{Timezone: domain.Ptr("Europe/Paris")}),
		dryRun("Acme", domain.StatePresent, domain.Integration{Name: domain.Ptr("web"), Type: domain.Ptr("websdk")}),
		dryRun("Acme", domain.StatePresent, domain.Integration{IKey: "DI1", Name: domain.Ptr("vpn2")}),
		dryRun("Acme", domain.StateAbsent, domain.Integration{IKey: "DI1"}),
		dryRun("Acme", domain.StatePresent, domain.Edition{Edition: domain.Ptr(domain.EditionBeyond)}),
	}
	for _, req := range reqs {
		out, err := e.Reconcile(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, out.Changed, "%s %s", req.Desired.Kind(), req.State)
		assert.True(t, out.DryRun)
		assert.Equal(t, domain.VerdictWouldChange, out.Verdict)
		assert.Equal(t, domain.PhaseWouldMutate, out.Phase)
	}
	assert.Empty(t, api.mutations())
}

func TestReconcile_DryRunMatchesEnforceVerdict(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC")}
	e := newTestEngine(api)
	desired := domain.Settings{Timezone: domain.Ptr("UTC")}

	dry, err := e.Reconcile(context.Background(), dryRun("", domain.StatePresent, desired))
	require.NoError(t, err)
	applied, err := e.Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)

	assert.Equal(t, dry.Changed, applied.Changed)
	assert.Equal(t, dry.Attributes, applied.Attributes)
}

func TestReconcile_IntegrationCreateByName(t *testing.T) {
	api := newFakeAPI()
	desired := domain.Integration{
		Name:               domain.Ptr("vpn"),
		Type:               domain.Ptr("sso-generic"),
		SelfServiceAllowed: domain.Ptr(false),
	}

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent, desired))
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, "DINEW", out.Attributes["integration_key"])
	assert.Equal(t, "secret", out.Attributes["secret_key"])
	assert.Equal(t, "0", out.Attributes["self_service_allowed"])
	v, ok := api.payloads.Get("self_service_allowed")
	require.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestReconcile_IntegrationFoundByName(t *testing.T) {
	api := newFakeAPI()
	api.integrations = []domain.Integration{{IKey: "DI1", SKey: "s1", Name: domain.Ptr("vpn"), Type: domain.Ptr("sso")}}

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent,
		domain.Integration{Name: domain.Ptr("vpn"), Type: domain.Ptr("sso")}))
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, "DI1", out.Attributes["integration_key"])
	assert.Equal(t, "sso", out.Attributes["type"])
	assert.Empty(t, api.mutations())
}

func TestReconcile_IntegrationUpdateByKey(t *testing.T) {
	api := newFakeAPI()
	api.integrations = []domain.Integration{{IKey: "DI1", Name: domain.Ptr("vpn"), Type: domain.Ptr("sso"), SelfServiceAllowed: domain.Ptr(true)}}
	e := newTestEngine(api)
	req := enforce("", domain.StatePresent, domain.Integration{IKey: "DI1", SelfServiceAllowed: domain.Ptr(false)})

	out, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, domain.FieldSet{{Name: "self_service_allowed", Value: "0"}}, api.payloads)

	out, err = e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestReconcile_IntegrationAbsentByKey(t *testing.T) {
	api := newFakeAPI()
	e := newTestEngine(api)

	out, err := e.Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Integration{IKey: "DIMISSING"}))
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, api.mutations())
}

func TestReconcile_IntegrationValidation(t *testing.T) {
	api := newFakeAPI()
	e := newTestEngine(api)

	_, err := e.Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Integration{}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, api.calls)
}

func TestReconcile_IntegrationFoundByNameWithoutType(t *testing.T) {
	api := newFakeAPI()
	api.integrations = []domain.Integration{{IKey: "DI1", SKey: "s1", Name: domain.Ptr("vpn"), Type: domain.Ptr("sso")}}

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent,
		domain.Integration{Name: domain.Ptr("vpn")}))
	require.NoError(t, err)

	assert.False(t, out.Changed)
	assert.Equal(t, domain.VerdictUnchanged, out.Verdict)
	assert.Equal(t, "DI1", out.Attributes["integration_key"])
	assert.Equal(t, "s1", out.Attributes["secret_key"])
	assert.Empty(t, api.mutations())
}

func TestReconcile_IntegrationCreateRequiresType(t *testing.T) {
	api := newFakeAPI()

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StatePresent,
		domain.Integration{Name: domain.Ptr("vpn")}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.False(t, out.Changed)
	assert.Equal(t, []string{"listIntegrations"}, api.calls)
}

func TestReconcile_IntegrationAbsentWithoutName(t *testing.T) {
	api := newFakeAPI()
	e := newTestEngine(api)

	_, err := e.Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Integration{}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, api.calls)
}

func TestReconcile_EditionRejectsUnknownValue(t *testing.T) {
	api := newFakeAPI()

	out, err := newTestEngine(api).Reconcile(context.Background(),
		enforce("", domain.StatePresent, domain.Edition{AccountID: "DA1", Edition: domain.Ptr(domain.EditionName("GOLD"))}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "GOLD")
	assert.False(t, out.Changed)
	assert.True(t, out.Failed())
	assert.Empty(t, api.calls)
}

func TestReconcile_EditionSet(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{{Name: "Acme", AccountID: "DA1"}}
	api.editions["DA1"] = domain.EditionEnterprise
	e := newTestEngine(api)
	req := enforce("Acme", domain.StatePresent, domain.Edition{Edition: domain.Ptr(domain.EditionPlatform)})

	out, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, "DA1", out.AccountID)
	assert.Equal(t, "PLATFORM", out.Attributes["edition"])
	assert.Equal(t, domain.EditionPlatform, api.editions["DA1"])

	out, err = e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestReconcile_UnknownTenant(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{{Name: "Acme", AccountID: "DA1"}}

	out, err := newTestEngine(api).Reconcile(context.Background(),
		enforce("Initech", domain.StatePresent, domain.Settings{Timezone: domain.Ptr("UTC")}))
	require.Error(t, err)
	assert.True(t, domain.IsResolution(err))

	var rerr *domain.ReconcileError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.StepResolve, rerr.Step)
	assert.Equal(t, domain.PhaseUnresolved, out.Phase)
	assert.Equal(t, []string{"listChildAccounts"}, api.calls)
}

func TestReconcile_MutationFailureKeepsPartialOutcome(t *testing.T) {
	api := newFakeAPI()
	api.accounts = []domain.Account{{Name: "Acme", AccountID: "DA1"}}
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC")}
	api.failOn["updateAccountSettings"] = errors.New("API error (HTTP 400): invalid timezone")

	out, err := newTestEngine(api).Reconcile(context.Background(),
		enforce("Acme", domain.StatePresent, domain.Settings{Timezone: domain.Ptr("Mars/Olympus")}))
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
	assert.Contains(t, err.Error(), "invalid timezone")

	var rerr *domain.ReconcileError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.StepMutate, rerr.Step)
	assert.Equal(t, "DA1", rerr.Scope.AccountID)
	assert.Equal(t, out, rerr.Outcome)

	assert.False(t, out.Changed)
	assert.Equal(t, "DA1", out.AccountID)
	assert.Equal(t, "Mars/Olympus", out.Attributes["timezone"])
	assert.NotEmpty(t, out.Error)
}

func TestReconcile_FetchFailure(t *testing.T) {
	api := newFakeAPI()
	api.failOn["getAccountSettings"] = errors.New("connection refused")

	out, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StateQuery, domain.Settings{}))
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
	assert.False(t, out.Changed)
	assert.NotNil(t, out.Attributes)
}

func TestReconcile_QueryNeverMutates(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC"), Raw: map[string]any{"timezone": "UTC", "name": "Acme"}}
	api.integrations = []domain.Integration{{IKey: "DI1", Name: domain.Ptr("vpn")}}
	e := newTestEngine(api)

	out, err := e.Reconcile(context.Background(), enforce("", domain.StateQuery, domain.Settings{Timezone: domain.Ptr("Europe/Paris")}))
	require.NoError(t, err)
	assert.Equal(t, "UTC", out.Attributes["timezone"])
	assert.Equal(t, "Acme", out.Attributes["name"])

	out, err = e.Reconcile(context.Background(), enforce("", domain.StateQuery, domain.Integration{}))
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "DI1", out.Items[0]["integration_key"])

	assert.Empty(t, api.mutations())
}

func TestReconcile_UnsupportedState(t *testing.T) {
	api := newFakeAPI()

	_, err := newTestEngine(api).Reconcile(context.Background(), enforce("", domain.StateAbsent, domain.Settings{}))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, api.calls)
}

func TestReconcile_OutcomeIsIndependentCopy(t *testing.T) {
	api := newFakeAPI()
	api.settings = domain.Settings{Timezone: domain.Ptr("UTC")}
	e := newTestEngine(api)
	req := enforce("", domain.StatePresent, domain.Settings{Timezone: domain.Ptr("UTC")})

	out, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	out.Attributes["timezone"] = "tampered"

	again, err := e.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "UTC", again.Attributes["timezone"])
}
