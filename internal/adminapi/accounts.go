package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"duoctl/internal/domain"
)

// Accounts API paths.
const (
	PathAccountList   = "/accounts/v1/account/list"
	PathAccountCreate = "/accounts/v1/account/create"
	PathAccountDelete = "/accounts/v1/account/delete"
)

// ListChildAccounts returns every child account of the parent portal.
func (c *Client) ListChildAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.Do(ctx, http.MethodPost, PathAccountList, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateChildAccount creates a child account and returns its identifiers.
func (c *Client) CreateChildAccount(ctx context.Context, name string) (domain.Account, error) {
	var created domain.Account
	params := url.Values{"name": {name}}
	if err := c.Do(ctx, http.MethodPost, PathAccountCreate, params, &created); err != nil {
		return domain.Account{}, err
	}
	if created.AccountID == "" {
		return domain.Account{}, fmt.Errorf("create account %q: response has no account_id", name)
	}
	if created.Name == "" {
		created.Name = name
	}
	return created, nil
}

// DeleteChildAccount deletes the child account with the given id.
func (c *Client) DeleteChildAccount(ctx context.Context, accountID string) error {
	params := url.Values{"account_id": {accountID}}
	return c.Do(ctx, http.MethodPost, PathAccountDelete, params, nil)
}
