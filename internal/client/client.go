package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client is the API client for the ticketing service. Every call goes
// through one dispatch pipeline that attaches the current credential,
// inspects the response, and transparently renews the session on a 401.
//
// CRUD callers (events, tickets, dashboards) must use the methods here
// rather than issuing raw HTTP, so they inherit the attach and renew
// behavior without reimplementing it.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	renewer *Renewer

	mu           sync.Mutex
	refreshToken string // held in memory only; never mirrored durably
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRenewTimeout bounds each renewal round-trip. Expiry is treated as a
// renewal failure.
func WithRenewTimeout(d time.Duration) Option {
	return func(c *Client) { c.renewer.timeout = d }
}

// New builds a client against baseURL. storage is the durable credential
// side-channel; use NewFileStorage for a real client or a MemoryStorage in
// tests.
func New(baseURL string, storage CredentialStorage, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		session: NewSession(storage),
	}
	c.renewer = newRenewer(c.session, c.refreshCall, 15*time.Second)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the session state machine for gates and controllers.
func (c *Client) Session() *Session { return c.session }

// ----- auth operations -----

type authData struct {
	User         Profile `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

// Register creates an account and starts an authenticated session.
func (c *Client) Register(ctx context.Context, name, email, password string) (Profile, error) {
	var data authData
	err := c.doBare(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &data)
	if err != nil {
		return Profile{}, err
	}
	c.installSession(data)
	return data.User, nil
}

// Login authenticates and starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (Profile, error) {
	var data authData
	err := c.doBare(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &data)
	if err != nil {
		return Profile{}, err
	}
	c.installSession(data)
	return data.User, nil
}

// Logout revokes the refresh token server-side (best effort) and clears the
// session either way.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.refreshToken = ""
	c.mu.Unlock()

	if rt != "" {
		_ = c.doBare(ctx, http.MethodPost, "/api/auth/logout",
			map[string]string{"refreshToken": rt}, nil)
	}
	c.session.Clear()
	return nil
}

// WhoAmI fetches the current profile through the renewing pipeline.
func (c *Client) WhoAmI(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Restore runs the one-time startup check: read the durable credential, move
// to Loading, verify it against the server, and settle Authenticated or
// Anonymous. It returns the settled state.
func (c *Client) Restore(ctx context.Context) State {
	token, err := c.session.storage.Load()
	if err != nil || token == "" {
		c.session.settleAnonymous()
		return StateAnonymous
	}
	c.session.beginRestore(token)

	p, err := c.WhoAmI(ctx)
	if err != nil {
		// Verification failed and no renewal could fix it (the refresh
		// token is never persisted): drop to Anonymous and forget the
		// stored credential.
		c.session.Clear()
		return StateAnonymous
	}
	// WhoAmI may have renewed the credential mid-flight; keep whatever is
	// current rather than the value read from storage.
	c.session.SetAuthenticated(p, c.session.Credential())
	return StateAuthenticated
}

func (c *Client) installSession(data authData) {
	c.mu.Lock()
	c.refreshToken = data.RefreshToken
	c.mu.Unlock()
	c.session.SetAuthenticated(data.User, data.AccessToken)
}

// refreshCall is the renewer's single network operation.
func (c *Client) refreshCall(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.New("no refresh token held")
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	err := c.doBare(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refreshToken": refreshToken}, &data)
	if err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

func (c *Client) currentRefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

// ----- dispatch pipeline -----

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do sends a request with renewal interception: the first 401 triggers (or
// joins) a renewal and the call is reissued once with the new credential.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.dispatch(ctx, method, path, body, out, true, false)
}

// doBare sends a request without renewal interception. The issuer endpoints
// themselves use it: a 401 from login or refresh is a definitive answer, not
// an expired credential.
func (c *Client) doBare(ctx context.Context, method, path string, body, out interface{}) error {
	return c.dispatch(ctx, method, path, body, out, false, false)
}

// dispatch is the single outgoing pipeline. retried is the per-call marker
// demanded by the retry-once rule: a call that already went through one
// renewal cycle never triggers another.
func (c *Client) dispatch(ctx context.Context, method, path string, body, out interface{}, renew, retried bool) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cred := c.session.Credential(); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && renew {
		if retried {
			// Second 401 after a successful renewal: the new credential
			// was rejected too, so the session is beyond repair. Force
			// logout instead of renewing again.
			c.session.Clear()
			return &AuthenticationError{Message: "session expired"}
		}
		if _, err := c.renewer.Renew(ctx, c.currentRefreshToken()); err != nil {
			// The renewer already cleared the session.
			return err
		}
		return c.dispatch(ctx, method, path, body, out, true, true)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		return statusError(resp.StatusCode, "")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		return statusError(resp.StatusCode, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &NetworkError{Err: fmt.Errorf("decode payload: %w", err)}
		}
	}
	return nil
}

// statusError maps the issuer's status classes onto the client error
// taxonomy. Anything unrecognized surfaces as a plain error.
func statusError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return &ValidationError{Message: msg}
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: msg}
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	default:
		return fmt.Errorf("%s (status %d)", msg, status)
	}
}
