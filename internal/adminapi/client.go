// Package adminapi is the client for the multi-tenant administrative API. It
// signs every request, throttles outgoing calls, and retries rate-limited
// responses; it carries no reconciliation logic.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for outgoing traffic.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultRatePerSecond  = 10
	DefaultBurst          = 5
	DefaultMaxRetries     = 5
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 32 * time.Second
)

// Client issues signed calls against the administrative API.
type Client struct {
	BaseURL    string
	IKey       string
	SKey       string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxRetries int

	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.Limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithMaxRetries sets how many times a rate-limited call is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.MaxRetries = n }
}

// WithBackoff sets the initial and maximum wait between retries.
func WithBackoff(initial, maxWait time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = initial
		c.maxBackoff = maxWait
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for host. A host without a scheme is reached
// over https.
func NewClient(host, ikey, skey string, opts ...Option) *Client {
	c := &Client{
		BaseURL:        NormalizeHost(host),
		IKey:           ikey,
		SKey:           skey,
		HTTPClient:     &http.Client{Timeout: DefaultTimeout},
		Limiter:        rate.NewLimiter(rate.Limit(DefaultRatePerSecond), DefaultBurst),
		MaxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		logger:         slog.New(slog.DiscardHandler),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeHost adds an https scheme when missing and strips trailing slashes.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host != "" && !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/")
}

// APIError is a FAIL response from the administrative API.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, msg)
}

// NotFound reports whether the API rejected the call because the target is missing.
func (e *APIError) NotFound() bool {
	return e.HTTPStatus == http.StatusNotFound
}

// envelope is the JSON wrapper of every API response.
type envelope struct {
	Stat          string          `json:"stat"`
	Response      json.RawMessage `json:"response"`
	Metadata      *metadata       `json:"metadata,omitempty"`
	Code          int             `json:"code"`
	Message       string          `json:"message"`
	MessageDetail string          `json:"message_detail"`
}

type metadata struct {
	NextOffset *int `json:"next_offset,omitempty"`
	TotalCount int  `json:"total_objects,omitempty"`
}

// Do performs a signed call and decodes the response payload into out.
// out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, out any) error {
	env, err := c.call(ctx, method, path, params)
	if err != nil {
		return err
	}
	return decodeResponse(env, method, path, out)
}

func decodeResponse(env *envelope, method, path string, out any) error {
	if out == nil || len(env.Response) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("parse %s %s: %w", method, path, err)
	}
	return nil
}

// call sends the request, retrying while the API answers 429.
func (c *Client) call(ctx context.Context, method, path string, params url.Values) (*envelope, error) {
	if params == nil {
		params = url.Values{}
	}
	backoff := c.initialBackoff
	for attempt := 0; ; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := c.send(ctx, method, path, params)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.MaxRetries {
			_ = resp.Body.Close()
			c.logger.Debug("rate limited, backing off",
				"method", method, "path", path, "attempt", attempt+1, "wait", backoff)
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		return readEnvelope(resp, method, path)
	}
}

func (c *Client) send(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	date := c.now().UTC().Format(time.RFC1123Z)
	canon := CanonicalParams(params)

	var body io.Reader
	target := c.BaseURL + path
	if method == http.MethodPost || method == http.MethodPut {
		body = strings.NewReader(canon)
	} else if canon != "" {
		target += "?" + canon
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Date", date)
	sig := Sign(c.SKey, date, method, u.Host, path, params)
	req.Header.Set("Authorization", AuthorizationHeader(c.IKey, sig))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// readEnvelope reads and closes the response body.
func readEnvelope(resp *http.Response, method, path string) (*envelope, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		return nil, fmt.Errorf("parse %s %s: %w", method, path, err)
	}
	if env.Stat != "OK" || resp.StatusCode >= 300 {
		return nil, &APIError{
			HTTPStatus: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
			Detail:     env.MessageDetail,
		}
	}
	return &env, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
