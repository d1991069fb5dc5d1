package admintwin

import (
	"maps"
	"strings"
	"sync"
	"time"

	"duoctl/internal/domain"
)

// parentAccount keys the state of the credentials' own account.
const parentAccount = ""

// Account is a child account held by the twin.
type Account struct {
	Name        string `json:"name"`
	AccountID   string `json:"account_id"`
	APIHostname string `json:"api_hostname"`
}

// Integration is an integration record held by the twin.
type Integration struct {
	IntegrationKey     string `json:"integration_key"`
	SecretKey          string `json:"secret_key"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	SelfServiceAllowed bool   `json:"self_service_allowed"`
}

// Call is one mutating call the twin accepted.
type Call struct {
	Op        string            `json:"op"`
	AccountID string            `json:"account_id,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	At        time.Time         `json:"at"`
}

// tenant is the per-account state.
type tenant struct {
	Settings     map[string]any `json:"settings"`
	Integrations []Integration  `json:"integrations"`
	Edition      string         `json:"edition"`
}

// Store is the twin's in-memory state. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	hostname string
	accounts []Account
	tenants  map[string]*tenant
	calls    []Call
	now      func() time.Time
}

// NewStore returns an empty store. hostname is reported as the api_hostname
// of every child account.
func NewStore(hostname string) *Store {
	s := &Store{hostname: hostname, now: time.Now}
	s.Reset()
	return s
}

// Reset discards all state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.tenants = map[string]*tenant{parentAccount: newTenant()}
	s.calls = nil
}

func newTenant() *tenant {
	return &tenant{Settings: defaultSettings(), Edition: string(domain.EditionEnterprise)}
}

// tenantLocked returns the state of accountID. ok is false for an unknown
// child account.
func (s *Store) tenantLocked(accountID string) (*tenant, bool) {
	t, ok := s.tenants[accountID]
	return t, ok
}

// Record appends a mutating call to the call log.
func (s *Store) Record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.At = s.now().UTC()
	s.calls = append(s.calls, c)
}

// Calls returns a copy of the call log.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// === Accounts ===

// Accounts returns the child accounts in creation order.
func (s *Store) Accounts() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Account(nil), s.accounts...)
}

// CreateAccount adds a child account.
func (s *Store) CreateAccount(name string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Account{Name: name, AccountID: domain.NewKey("DA", 20), APIHostname: s.hostname}
	s.accounts = append(s.accounts, a)
	t := newTenant()
	t.Settings["name"] = name
	s.tenants[a.AccountID] = t
	return a
}

// DeleteAccount removes a child account and its state.
func (s *Store) DeleteAccount(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a.AccountID == accountID {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			delete(s.tenants, accountID)
			return true
		}
	}
	return false
}

// HasAccount reports whether accountID is the parent or a known child.
func (s *Store) HasAccount(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tenantLocked(accountID)
	return ok
}

// === Integrations ===

// Integrations returns the integrations of an account.
func (s *Store) Integrations(accountID string) []Integration {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return nil
	}
	return append([]Integration(nil), t.Integrations...)
}

// Integration returns one integration by key.
func (s *Store) Integration(accountID, ikey string) (Integration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return Integration{}, false
	}
	for _, in := range t.Integrations {
		if in.IntegrationKey == ikey {
			return in, true
		}
	}
	return Integration{}, false
}

// CreateIntegration stores a new integration with generated keys.
func (s *Store) CreateIntegration(accountID string, in Integration) Integration {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.IntegrationKey = domain.NewKey("DI", 20)
	in.SecretKey = strings.ToLower(domain.NewKey("", 40))
	if t, ok := s.tenantLocked(accountID); ok {
		t.Integrations = append(t.Integrations, in)
	}
	return in
}

// UpdateIntegration applies fn to the integration with key ikey.
func (s *Store) UpdateIntegration(accountID, ikey string, fn func(*Integration)) (Integration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return Integration{}, false
	}
	for i := range t.Integrations {
		if t.Integrations[i].IntegrationKey == ikey {
			fn(&t.Integrations[i])
			return t.Integrations[i], true
		}
	}
	return Integration{}, false
}

// DeleteIntegration removes the integration with key ikey.
func (s *Store) DeleteIntegration(accountID, ikey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return false
	}
	for i, in := range t.Integrations {
		if in.IntegrationKey == ikey {
			t.Integrations = append(t.Integrations[:i], t.Integrations[i+1:]...)
			return true
		}
	}
	return false
}

// === Settings ===

// Settings returns a copy of an account's settings.
func (s *Store) Settings(accountID string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return nil, false
	}
	return maps.Clone(t.Settings), true
}

// UpdateSettings merges values into an account's settings.
func (s *Store) UpdateSettings(accountID string, values map[string]any) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return nil, false
	}
	maps.Copy(t.Settings, values)
	return maps.Clone(t.Settings), true
}

// === Billing edition ===

// Edition returns the billing edition of a child account.
func (s *Store) Edition(accountID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return "", false
	}
	return t.Edition, true
}

// SetEdition sets the billing edition of a child account.
func (s *Store) SetEdition(accountID, edition string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenantLocked(accountID)
	if !ok {
		return false
	}
	t.Edition = edition
	return true
}

// Snapshot returns the full state for the admin endpoints.
func (s *Store) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenants := make(map[string]tenant, len(s.tenants))
	for id, t := range s.tenants {
		key := id
		if key == parentAccount {
			key = "parent"
		}
		tenants[key] = tenant{
			Settings:     maps.Clone(t.Settings),
			Integrations: append([]Integration(nil), t.Integrations...),
			Edition:      t.Edition,
		}
	}
	return struct {
		Accounts []Account         `json:"accounts"`
		Tenants  map[string]tenant `json:"tenants"`
		Calls    int               `json:"calls"`
	}{
		Accounts: append([]Account(nil), s.accounts...),
		Tenants:  tenants,
		Calls:    len(s.calls),
	}
}
