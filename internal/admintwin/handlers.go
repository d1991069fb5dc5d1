package admintwin

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"duoctl/internal/domain"
	"duoctl/internal/middleware"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 300
)

// scope returns the account a call is narrowed to. It writes a FAIL response
// and returns false for an unknown child account.
func (s *Server) scope(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Form.Get("account_id")
	if !s.store.HasAccount(id) {
		writeNotFound(w, "account_id")
		return "", false
	}
	return id, true
}

// record logs a mutating call.
func (s *Server) record(r *http.Request, op, accountID string) {
	params := map[string]string{}
	for k := range r.Form {
		if k != "account_id" {
			params[k] = r.Form.Get(k)
		}
	}
	s.store.Record(Call{
		Op:        op,
		AccountID: accountID,
		Params:    params,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
	s.logger.Info("mutation", "op", op, "account_id", accountID)
}

// === Accounts ===

func (s *Server) listAccounts(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, s.store.Accounts())
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	name := r.Form.Get("name")
	if name == "" {
		writeInvalid(w, "name")
		return
	}
	a := s.store.CreateAccount(name)
	s.record(r, "createChildAccount", a.AccountID)
	writeOK(w, a)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.Form.Get("account_id")
	if id == "" {
		writeInvalid(w, "account_id")
		return
	}
	if !s.store.DeleteAccount(id) {
		writeNotFound(w, "account_id")
		return
	}
	s.record(r, "deleteChildAccount", id)
	writeOK(w, "")
}

// === Integrations ===

func (s *Server) listIntegrations(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	limit, offset, err := pageParams(r.Form)
	if err != nil {
		writeInvalid(w, err.Error())
		return
	}

	all := s.store.Integrations(accountID)
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	page := all[start:end]
	if page == nil {
		page = []Integration{}
	}

	metadata := map[string]any{"total_objects": len(all)}
	if end < len(all) {
		metadata["next_offset"] = end
	}
	writeJSON(w, http.StatusOK, map[string]any{"stat": "OK", "response": page, "metadata": metadata})
}

func pageParams(form url.Values) (limit, offset int, err error) {
	limit = defaultPageLimit
	if v := form.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errInvalidParam("limit")
		}
		limit = min(limit, maxPageLimit)
	}
	if v := form.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errInvalidParam("offset")
		}
	}
	return limit, offset, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return string(e) }

func (s *Server) createIntegration(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	in := Integration{Name: r.Form.Get("name"), Type: r.Form.Get("type")}
	if in.Name == "" {
		writeInvalid(w, "name")
		return
	}
	if in.Type == "" {
		writeInvalid(w, "type")
		return
	}
	if v := r.Form.Get("self_service_allowed"); v != "" {
		b, err := parseFlag(v)
		if err != nil {
			writeInvalid(w, "self_service_allowed")
			return
		}
		in.SelfServiceAllowed = b
	}

	created := s.store.CreateIntegration(accountID, in)
	s.record(r, "createIntegration", accountID)
	writeOK(w, created)
}

func (s *Server) getIntegration(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	in, found := s.store.Integration(accountID, chi.URLParam(r, "ikey"))
	if !found {
		writeNotFound(w, "integration_key")
		return
	}
	writeOK(w, in)
}

func (s *Server) updateIntegration(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}

	var ssa *bool
	if v := r.Form.Get("self_service_allowed"); v != "" {
		b, err := parseFlag(v)
		if err != nil {
			writeInvalid(w, "self_service_allowed")
			return
		}
		ssa = &b
	}
	for k := range r.Form {
		if !slices.Contains([]string{"account_id", "name", "type", "self_service_allowed"}, k) {
			writeInvalid(w, k)
			return
		}
	}

	updated, found := s.store.UpdateIntegration(accountID, chi.URLParam(r, "ikey"), func(in *Integration) {
		if v := r.Form.Get("name"); v != "" {
			in.Name = v
		}
		if v := r.Form.Get("type"); v != "" {
			in.Type = v
		}
		if ssa != nil {
			in.SelfServiceAllowed = *ssa
		}
	})
	if !found {
		writeNotFound(w, "integration_key")
		return
	}
	s.record(r, "updateIntegration", accountID)
	writeOK(w, updated)
}

func (s *Server) deleteIntegration(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	if !s.store.DeleteIntegration(accountID, chi.URLParam(r, "ikey")) {
		writeNotFound(w, "integration_key")
		return
	}
	s.record(r, "deleteIntegration", accountID)
	writeOK(w, "")
}

// === Settings ===

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	settings, _ := s.store.Settings(accountID)
	writeOK(w, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.scope(w, r)
	if !ok {
		return
	}
	values := map[string]any{}
	for k := range r.Form {
		if k == "account_id" {
			continue
		}
		v, err := parseSetting(k, r.Form.Get(k))
		if err != nil {
			writeInvalid(w, err.Error())
			return
		}
		values[k] = v
	}
	if len(values) == 0 {
		writeInvalid(w, "no settings given")
		return
	}

	settings, _ := s.store.UpdateSettings(accountID, values)
	s.record(r, "updateAccountSettings", accountID)
	writeOK(w, settings)
}

// === Billing edition ===

// editionAccount returns the child account an edition call targets.
func (s *Server) editionAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Form.Get("account_id")
	if id == "" {
		writeInvalid(w, "account_id")
		return "", false
	}
	if !s.store.HasAccount(id) {
		writeNotFound(w, "account_id")
		return "", false
	}
	return id, true
}

func (s *Server) getEdition(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.editionAccount(w, r)
	if !ok {
		return
	}
	edition, _ := s.store.Edition(accountID)
	writeOK(w, map[string]string{"edition": edition})
}

func (s *Server) setEdition(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.editionAccount(w, r)
	if !ok {
		return
	}
	edition := domain.EditionName(r.Form.Get("edition"))
	if !edition.Valid() {
		writeInvalid(w, "edition")
		return
	}
	s.store.SetEdition(accountID, string(edition))
	s.record(r, "setBillingEdition", accountID)
	writeOK(w, "")
}
