package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"duoctl/internal/domain"
)

// Admin API paths.
const (
	PathIntegrations   = "/admin/v1/integrations"
	PathSettings       = "/admin/v1/settings"
	PathBillingEdition = "/admin/v1/billing/edition"

	pageLimit = 300
)

// IntegrationPath returns the path of a single integration.
func IntegrationPath(ikey string) string {
	return PathIntegrations + "/" + url.PathEscape(ikey)
}

// scoped returns params narrowed to the scope's child account.
func scoped(scope domain.TenantScope, params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = v
	}
	if !scope.IsZero() {
		out.Set("account_id", scope.AccountID)
	}
	return out
}

// EncodeFields converts a field set to request parameters.
func EncodeFields(fields domain.FieldSet) url.Values {
	params := url.Values{}
	for _, f := range fields {
		params.Set(f.Name, domain.FormatValue(f.Value))
	}
	return params
}

// === Integrations ===

type apiIntegration struct {
	IntegrationKey     string          `json:"integration_key"`
	SecretKey          string          `json:"secret_key"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	SelfServiceAllowed json.RawMessage `json:"self_service_allowed"`
}

func decodeIntegration(raw json.RawMessage) (domain.Integration, error) {
	var wire apiIntegration
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Integration{}, fmt.Errorf("parse integration: %w", err)
	}
	var verbatim map[string]any
	if err := json.Unmarshal(raw, &verbatim); err != nil {
		return domain.Integration{}, fmt.Errorf("parse integration: %w", err)
	}
	in := domain.Integration{
		IKey:               wire.IntegrationKey,
		SKey:               wire.SecretKey,
		SelfServiceAllowed: parseFlag(wire.SelfServiceAllowed),
		Raw:                verbatim,
	}
	if wire.Name != "" {
		in.Name = domain.Ptr(wire.Name)
	}
	if wire.Type != "" {
		in.Type = domain.Ptr(wire.Type)
	}
	return in, nil
}

// parseFlag accepts true/false, 1/0, or "1"/"0".
func parseFlag(raw json.RawMessage) *bool {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return domain.Ptr(n != 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseBool(s); err == nil {
			return &v
		}
	}
	return nil
}

// GetIntegration returns the integration with the given key.
func (c *Client) GetIntegration(ctx context.Context, scope domain.TenantScope, ikey string) (domain.Integration, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, IntegrationPath(ikey), scoped(scope, nil), &raw); err != nil {
		return domain.Integration{}, err
	}
	return decodeIntegration(raw)
}

// ListIntegrations returns every integration, following pagination.
func (c *Client) ListIntegrations(ctx context.Context, scope domain.TenantScope) ([]domain.Integration, error) {
	var all []domain.Integration
	offset := 0
	for {
		params := scoped(scope, url.Values{
			"limit":  {strconv.Itoa(pageLimit)},
			"offset": {strconv.Itoa(offset)},
		})
		env, err := c.call(ctx, http.MethodGet, PathIntegrations, params)
		if err != nil {
			return nil, err
		}
		var page []json.RawMessage
		if err := decodeResponse(env, http.MethodGet, PathIntegrations, &page); err != nil {
			return nil, err
		}
		for _, raw := range page {
			in, err := decodeIntegration(raw)
			if err != nil {
				return nil, err
			}
			all = append(all, in)
		}
		if env.Metadata == nil || env.Metadata.NextOffset == nil {
			break
		}
		offset = *env.Metadata.NextOffset
	}
	return all, nil
}

// CreateIntegration creates an integration from fields and returns it with
// its generated keys.
func (c *Client) CreateIntegration(ctx context.Context, scope domain.TenantScope, fields domain.FieldSet) (domain.Integration, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, PathIntegrations, scoped(scope, EncodeFields(fields)), &raw); err != nil {
		return domain.Integration{}, err
	}
	return decodeIntegration(raw)
}

// UpdateIntegration applies fields to an existing integration.
func (c *Client) UpdateIntegration(ctx context.Context, scope domain.TenantScope, ikey string, fields domain.FieldSet) error {
	return c.Do(ctx, http.MethodPost, IntegrationPath(ikey), scoped(scope, EncodeFields(fields)), nil)
}

// DeleteIntegration removes an integration.
func (c *Client) DeleteIntegration(ctx context.Context, scope domain.TenantScope, ikey string) error {
	return c.Do(ctx, http.MethodDelete, IntegrationPath(ikey), scoped(scope, nil), nil)
}

// === Settings ===

// GetSettings returns the account-wide settings.
func (c *Client) GetSettings(ctx context.Context, scope domain.TenantScope) (domain.Settings, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, PathSettings, scoped(scope, nil), &raw); err != nil {
		return domain.Settings{}, err
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := json.Unmarshal(raw, &s.Raw); err != nil {
		return domain.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// UpdateSettings applies fields to the account-wide settings.
func (c *Client) UpdateSettings(ctx context.Context, scope domain.TenantScope, fields domain.FieldSet) error {
	return c.Do(ctx, http.MethodPost, PathSettings, scoped(scope, EncodeFields(fields)), nil)
}

// === Billing edition ===

// GetBillingEdition returns the billing edition of a child account.
func (c *Client) GetBillingEdition(ctx context.Context, accountID string) (domain.Edition, error) {
	var resp struct {
		Edition domain.EditionName `json:"edition"`
	}
	params := url.Values{"account_id": {accountID}}
	if err := c.Do(ctx, http.MethodGet, PathBillingEdition, params, &resp); err != nil {
		return domain.Edition{}, err
	}
	ed := domain.Edition{AccountID: accountID}
	if resp.Edition != "" {
		ed.Edition = domain.Ptr(resp.Edition)
	}
	return ed, nil
}

// SetBillingEdition sets the billing edition of a child account.
func (c *Client) SetBillingEdition(ctx context.Context, accountID string, edition domain.EditionName) error {
	params := url.Values{"account_id": {accountID}, "edition": {string(edition)}}
	return c.Do(ctx, http.MethodPost, PathBillingEdition, params, nil)
}
