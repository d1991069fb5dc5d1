package admintwin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoctl/internal/adminapi"
	"duoctl/internal/domain"
	"duoctl/internal/reconcile"
)

const (
	testIKey = "DIPARENTXXXXXXXXXXXX"
	testSKey = "parent-secret-key"
)

type twinFixture struct {
	srv    *Server
	http   *httptest.Server
	client *adminapi.Client
	engine *reconcile.Engine
}

func newFixture(t *testing.T) *twinFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := New(Config{IKey: testIKey, SKey: testSKey}, nil)
	hs := httptest.NewServer(srv.Handler(ctx))
	t.Cleanup(hs.Close)

	client := adminapi.NewClient(hs.URL, testIKey, testSKey, adminapi.WithRateLimit(1000, 100))
	return &twinFixture{srv: srv, http: hs, client: client, engine: reconcile.New(client, nil)}
}

func (f *twinFixture) ops() []string {
	var out []string
	for _, c := range f.srv.Store().Calls() {
		out = append(out, c.Op)
	}
	return out
}

func TestTwin_RejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	bad := adminapi.NewClient(f.http.URL, testIKey, "wrong-secret")

	_, err := bad.ListChildAccounts(context.Background())
	var apiErr *adminapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	assert.Equal(t, CodeInvalidSignature, apiErr.Code)

	resp, err := http.Post(f.http.URL+adminapi.PathAccountList, "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTwin_AccountLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.engine.Reconcile(ctx, reconcile.Request{
		State: domain.StatePresent, Desired: domain.Account{Name: "Acme"},
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	id, _ := out.Attributes["account_id"].(string)
	assert.Regexp(t, `^DA[0-9A-F]{18}$`, id)

	out, err = f.engine.Reconcile(ctx, reconcile.Request{
		State: domain.StatePresent, Desired: domain.Account{Name: "Acme"},
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, id, out.Attributes["account_id"])

	out, err = f.engine.Reconcile(ctx, reconcile.Request{
		State: domain.StateAbsent, Desired: domain.Account{Name: "Acme"},
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Empty(t, f.srv.Store().Accounts())

	assert.Equal(t, []string{"createChildAccount", "deleteChildAccount"}, f.ops())
}

func TestTwin_TenantScopedSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.srv.Store().CreateAccount("Acme")
	f.srv.Store().CreateAccount("Globex")

	req := reconcile.Request{
		Tenant:  "Acme",
		State:   domain.StatePresent,
		Desired: domain.Settings{Timezone: domain.Ptr("America/New_York"), LockoutThreshold: domain.Ptr(5)},
	}
	out, err := f.engine.Reconcile(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, acme.AccountID, out.AccountID)

	got, _ := f.srv.Store().Settings(acme.AccountID)
	assert.Equal(t, "America/New_York", got["timezone"])
	assert.Equal(t, 5, got["lockout_threshold"])

	parent, _ := f.srv.Store().Settings("")
	assert.Equal(t, "UTC", parent["timezone"])

	out, err = f.engine.Reconcile(ctx, req)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	calls := f.srv.Store().Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, acme.AccountID, calls[0].AccountID)
	assert.NotEmpty(t, calls[0].RequestID)
}

func TestTwin_DryRunIssuesNoWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.Store().CreateAccount("Acme")

	reqs := []reconcile.Request{
		{State: domain.StatePresent, Mode: domain.ModeDryRun, Desired: domain.Account{Name: "Initech"}},
		{Tenant: "Acme", State: domain.StatePresent, Mode: domain.ModeDryRun,
			Desired: domain.Settings{Timezone: domain.Ptr("Europe/Paris")}},
		{Tenant: "Acme", State: domain.StatePresent, Mode: domain.ModeDryRun,
			Desired: domain.Integration{Name: domain.Ptr("vpn"), Type: domain.Ptr("sso-generic")}},
		{Tenant: "Acme", State: domain.StatePresent, Mode: domain.ModeDryRun,
			Desired: domain.Edition{Edition: domain.Ptr(domain.EditionBeyond)}},
	}
	for _, req := range reqs {
		out, err := f.engine.Reconcile(ctx, req)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, domain.VerdictWouldChange, out.Verdict)
	}
	assert.Empty(t, f.ops())
}

func TestTwin_IntegrationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.Store().CreateAccount("Acme")

	create := reconcile.Request{
		Tenant: "Acme",
		State:  domain.StatePresent,
		Desired: domain.Integration{
			Name:               domain.Ptr("vpn"),
			Type:               domain.Ptr("sso-generic"),
			SelfServiceAllowed: domain.Ptr(false),
		},
	}
	out, err := f.engine.Reconcile(ctx, create)
	require.NoError(t, err)
	require.True(t, out.Changed)
	ikey, _ := out.Attributes["integration_key"].(string)
	require.NotEmpty(t, ikey)
	assert.NotEmpty(t, out.Attributes["secret_key"])

	out, err = f.engine.Reconcile(ctx, create)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	update := reconcile.Request{
		Tenant:  "Acme",
		State:   domain.StatePresent,
		Desired: domain.Integration{IKey: ikey, SelfServiceAllowed: domain.Ptr(true)},
	}
	out, err = f.engine.Reconcile(ctx, update)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, "1", out.Attributes["self_service_allowed"])

	out, err = f.engine.Reconcile(ctx, reconcile.Request{
		Tenant: "Acme", State: domain.StateQuery, Desired: domain.Integration{IKey: ikey},
	})
	require.NoError(t, err)
	assert.Equal(t, true, out.Attributes["self_service_allowed"])

	absent := reconcile.Request{Tenant: "Acme", State: domain.StateAbsent, Desired: domain.Integration{IKey: ikey}}
	out, err = f.engine.Reconcile(ctx, absent)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	out, err = f.engine.Reconcile(ctx, absent)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	assert.Equal(t, []string{"createIntegration", "updateIntegration", "deleteIntegration"}, f.ops())
}

func TestTwin_ListIntegrationsPages(t *testing.T) {
	f := newFixture(t)
	for range 305 {
		f.srv.Store().CreateIntegration("", Integration{Name: "app", Type: "sso"})
	}

	list, err := f.client.ListIntegrations(context.Background(), domain.TenantScope{})
	require.NoError(t, err)
	assert.Len(t, list, 305)
}

func TestTwin_EditionValidation(t *testing.T) {
	f := newFixture(t)
	acme := f.srv.Store().CreateAccount("Acme")

	err := f.client.SetBillingEdition(context.Background(), acme.AccountID, "GOLD")
	var apiErr *adminapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeInvalidParams, apiErr.Code)

	ed, err := f.client.GetBillingEdition(context.Background(), acme.AccountID)
	require.NoError(t, err)
	assert.Equal(t, domain.EditionEnterprise, *ed.Edition)
}

func TestTwin_UnknownScopeIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.GetSettings(context.Background(), domain.TenantScope{AccountID: "DAMISSING"})
	var apiErr *adminapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NotFound())
}

func TestTwin_InvalidSettingRejected(t *testing.T) {
	f := newFixture(t)

	out, err := f.engine.Reconcile(context.Background(), reconcile.Request{
		State:   domain.StatePresent,
		Desired: domain.Settings{Timezone: domain.Ptr("UTC"), LockoutThreshold: domain.Ptr(3)},
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)

	err = f.client.UpdateSettings(context.Background(), domain.TenantScope{},
		domain.FieldSet{{Name: "lockout_threshold", Value: "many"}})
	var apiErr *adminapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CodeInvalidParams, apiErr.Code)
}

func TestTwin_AdminEndpoints(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.CreateChildAccount(context.Background(), "Acme")
	require.NoError(t, err)

	resp, err := http.Get(f.http.URL + "/admin/requests")
	require.NoError(t, err)
	var calls []Call
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&calls))
	_ = resp.Body.Close()
	require.Len(t, calls, 1)
	assert.Equal(t, "createChildAccount", calls[0].Op)
	assert.Equal(t, "Acme", calls[0].Params["name"])

	resp, err = http.Post(f.http.URL+"/admin/reset", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, f.srv.Store().Accounts())
	assert.Empty(t, f.srv.Store().Calls())

	resp, err = http.Get(f.http.URL + "/admin/state")
	require.NoError(t, err)
	var state map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	_ = resp.Body.Close()
	assert.Contains(t, state, "tenants")
}

func TestTwin_RateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := New(Config{IKey: testIKey, SKey: testSKey, RateLimitRPS: 0.001, RateLimitBurst: 1}, nil)
	hs := httptest.NewServer(srv.Handler(ctx))
	defer hs.Close()

	client := adminapi.NewClient(hs.URL, testIKey, testSKey, adminapi.WithMaxRetries(0))
	_, err := client.ListChildAccounts(ctx)
	require.NoError(t, err)

	_, err = client.ListChildAccounts(ctx)
	var apiErr *adminapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatus)
}
