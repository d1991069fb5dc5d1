// Package admintwin is an in-memory twin of the multi-tenant administrative
// API. It verifies signed requests, scopes state per child account, answers
// in the API's JSON envelope, and logs every mutating call so tests can
// assert which writes were issued.
package admintwin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"duoctl/internal/adminapi"
	"duoctl/internal/middleware"
)

// Error codes returned in FAIL envelopes.
const (
	CodeInvalidParams    = 40002
	CodeInvalidSignature = 40103
	CodeNotFound         = 40401
)

// Config holds the twin's parent credentials and limits.
type Config struct {
	IKey string
	SKey string
	// Host is the hostname requests are signed for. Empty means the Host
	// header of each request.
	Host           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server serves the twin API.
type Server struct {
	cfg    Config
	store  *Store
	logger *slog.Logger
}

// New creates a twin server with empty state.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	hostname := cfg.Host
	if hostname == "" {
		hostname = "localhost"
	}
	return &Server{cfg: cfg, store: NewStore(hostname), logger: logger}
}

// Store returns the twin's state.
func (s *Server) Store() *Store { return s.store }

// Handler builds the router. Background work started by the rate limiter
// stops when ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimiter(ctx, middleware.RateLimitConfig{
				RequestsPerSecond: s.cfg.RateLimitRPS,
				Burst:             max(s.cfg.RateLimitBurst, 1),
				Key:               integrationKey,
			}))
		}
		r.Use(s.verifySignature)

		r.Post(adminapi.PathAccountList, s.listAccounts)
		r.Post(adminapi.PathAccountCreate, s.createAccount)
		r.Post(adminapi.PathAccountDelete, s.deleteAccount)

		r.Get(adminapi.PathIntegrations, s.listIntegrations)
		r.Post(adminapi.PathIntegrations, s.createIntegration)
		r.Get(adminapi.PathIntegrations+"/{ikey}", s.getIntegration)
		r.Post(adminapi.PathIntegrations+"/{ikey}", s.updateIntegration)
		r.Delete(adminapi.PathIntegrations+"/{ikey}", s.deleteIntegration)

		r.Get(adminapi.PathSettings, s.getSettings)
		r.Post(adminapi.PathSettings, s.updateSettings)

		r.Get(adminapi.PathBillingEdition, s.getEdition)
		r.Post(adminapi.PathBillingEdition, s.setEdition)
	})

	// Unsigned control plane.
	r.Post("/admin/reset", s.handleReset)
	r.Get("/admin/state", s.handleState)
	r.Get("/admin/requests", s.handleRequests)
	r.Get("/admin/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// verifySignature rejects requests whose Authorization header does not carry
// a valid signature by the twin's parent credentials.
func (s *Server) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeFail(w, http.StatusBadRequest, CodeInvalidParams, "Invalid request parameters", err.Error())
			return
		}
		ikey, sig, ok := adminapi.ParseAuthorization(r.Header.Get("Authorization"))
		date := r.Header.Get("Date")
		host := s.cfg.Host
		if host == "" {
			host = r.Host
		}
		if !ok || ikey != s.cfg.IKey || date == "" ||
			!adminapi.Verify(s.cfg.SKey, sig, date, r.Method, host, r.URL.Path, r.Form) {
			s.logger.Warn("rejected unsigned request", "method", r.Method, "path", r.URL.Path)
			writeFail(w, http.StatusUnauthorized, CodeInvalidSignature, "Invalid signature in request credentials", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// integrationKey keys the rate limiter by caller credentials.
func integrationKey(r *http.Request) string {
	if ikey, _, ok := adminapi.ParseAuthorization(r.Header.Get("Authorization")); ok {
		return ikey
	}
	return r.RemoteAddr
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.store.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Calls())
}

// === Envelope ===

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, resp any) {
	writeJSON(w, http.StatusOK, map[string]any{"stat": "OK", "response": resp})
}

func writeFail(w http.ResponseWriter, status, code int, message, detail string) {
	body := map[string]any{"stat": "FAIL", "code": code, "message": message}
	if detail != "" {
		body["message_detail"] = detail
	}
	writeJSON(w, status, body)
}

func writeNotFound(w http.ResponseWriter, detail string) {
	writeFail(w, http.StatusNotFound, CodeNotFound, "Resource not found", detail)
}

func writeInvalid(w http.ResponseWriter, detail string) {
	writeFail(w, http.StatusBadRequest, CodeInvalidParams, "Invalid request parameters", detail)
}
