package domain

import "fmt"

// TenantScope narrows admin API calls to one child account. The zero value
// means the caller's own account.
type TenantScope struct {
	Name        string `json:"name,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	APIHostname string `json:"api_hostname,omitempty"`
}

// ScopeFromAccount builds a TenantScope from a resolved child account.
func ScopeFromAccount(a Account) TenantScope {
	return TenantScope{Name: a.Name, AccountID: a.AccountID, APIHostname: a.APIHostname}
}

// IsZero reports whether the scope is the caller's own account.
func (s TenantScope) IsZero() bool {
	return s.AccountID == ""
}

func (s TenantScope) String() string {
	if s.IsZero() {
		return "self"
	}
	if s.Name == "" {
		return s.AccountID
	}
	return fmt.Sprintf("%s(%s)", s.Name, s.AccountID)
}
