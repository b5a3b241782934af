package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIssuer is an httptest-backed credential issuer and protected resource.
// It accepts exactly one access token at a time; a refresh rotates it.
type fakeIssuer struct {
	mu            sync.Mutex
	validToken    string
	refreshToken  string
	rejectRefresh bool
	alwaysReject  bool // protected endpoints 401 even with the valid token

	refreshCalls int32
	seenBearers  []string // Authorization header of each /api/auth/me call

	srv *httptest.Server
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	f := &fakeIssuer{validToken: "T1", refreshToken: "R1"}
	mux := http.NewServeMux()

	writeEnv := func(w http.ResponseWriter, status int, data interface{}, errMsg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": errMsg == "",
			"data":    data,
			"error":   errMsg,
		})
	}

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeEnv(w, http.StatusUnauthorized, nil, "invalid credentials")
			return
		}
		f.mu.Lock()
		tok, ref := f.validToken, f.refreshToken
		f.mu.Unlock()
		writeEnv(w, http.StatusOK, map[string]interface{}{
			"user":         map[string]interface{}{"id": 1, "email": body.Email, "name": "Ada", "role": "user"},
			"accessToken":  tok,
			"refreshToken": ref,
		}, "")
	})

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.refreshCalls, 1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.rejectRefresh || body.RefreshToken != f.refreshToken {
			writeEnv(w, http.StatusUnauthorized, nil, "invalid refresh token")
			return
		}
		f.validToken = "T2"
		writeEnv(w, http.StatusOK, map[string]interface{}{"accessToken": "T2"}, "")
	})

	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		bearer := r.Header.Get("Authorization")
		f.mu.Lock()
		f.seenBearers = append(f.seenBearers, bearer)
		ok := !f.alwaysReject && bearer == "Bearer "+f.validToken
		f.mu.Unlock()
		if !ok {
			writeEnv(w, http.StatusUnauthorized, nil, "invalid token")
			return
		}
		writeEnv(w, http.StatusOK, map[string]interface{}{"id": 1, "email": "a@b.com", "name": "Ada", "role": "user"}, "")
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) expireAccessToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validToken = "T2" // the token the next refresh will hand out
}

func (f *fakeIssuer) refreshCount() int32 { return atomic.LoadInt32(&f.refreshCalls) }

func newTestClient(f *fakeIssuer, storage CredentialStorage) *Client {
	return New(f.srv.URL, storage, WithRenewTimeout(2*time.Second))
}

func TestLoginThenProtectedCallNeedsNoRenewal(t *testing.T) {
	f := newFakeIssuer(t)
	c := newTestClient(f, &MemoryStorage{})
	ctx := context.Background()

	profile, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user", profile.Role)
	assert.Equal(t, StateAuthenticated, c.Session().State())

	_, err = c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.refreshCount(), "a fresh credential must not trigger renewal")
}

func TestExpiredCredentialIsRenewedAndCallRetriedOnce(t *testing.T) {
	f := newFakeIssuer(t)
	storage := &MemoryStorage{}
	c := newTestClient(f, storage)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)

	f.expireAccessToken() // T1 is now rejected; refresh hands out T2

	profile, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", profile.Email)

	assert.Equal(t, int32(1), f.refreshCount())
	assert.Equal(t, "T2", c.Session().Credential())
	stored, _ := storage.Load()
	assert.Equal(t, "T2", stored, "renewed credential must be mirrored durably")

	// The original call went out with T1, the retry with T2.
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.seenBearers, 2)
	assert.Equal(t, "Bearer T1", f.seenBearers[0])
	assert.Equal(t, "Bearer T2", f.seenBearers[1])
}

func TestRenewalStormCollapsesToOneRefresh(t *testing.T) {
	f := newFakeIssuer(t)
	c := newTestClient(f, &MemoryStorage{})
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)
	f.expireAccessToken()

	const n = 12
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.WhoAmI(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	assert.Equal(t, int32(1), f.refreshCount(), "concurrent 401s must share one refresh round-trip")
}

func TestSecondUnauthorizedAfterRenewalIsTerminal(t *testing.T) {
	f := newFakeIssuer(t)
	storage := &MemoryStorage{}
	c := newTestClient(f, storage)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)

	// Every protected call is rejected, even with a freshly renewed token.
	f.mu.Lock()
	f.alwaysReject = true
	f.mu.Unlock()

	_, err = c.WhoAmI(ctx)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)

	assert.Equal(t, int32(1), f.refreshCount(), "the second 401 must not start another renewal")
	assert.Equal(t, StateAnonymous, c.Session().State())
	stored, _ := storage.Load()
	assert.Empty(t, stored)
}

func TestRenewalFailureForcesLogout(t *testing.T) {
	f := newFakeIssuer(t)
	storage := &MemoryStorage{}
	c := newTestClient(f, storage)
	ctx := context.Background()

	_, err := c.Login(ctx, "a@b.com", "secret")
	require.NoError(t, err)

	f.mu.Lock()
	f.validToken = "T2" // expire the held token
	f.rejectRefresh = true
	f.mu.Unlock()

	_, err = c.WhoAmI(ctx)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, StateAnonymous, c.Session().State())
	stored, _ := storage.Load()
	assert.Empty(t, stored)
}

func TestLoginFailureIsNotRetried(t *testing.T) {
	f := newFakeIssuer(t)
	c := newTestClient(f, &MemoryStorage{})

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(0), f.refreshCount(), "a rejected login is an answer, not an expired credential")
	assert.NotEqual(t, StateAuthenticated, c.Session().State())
}

func TestRestoreWithValidStoredCredential(t *testing.T) {
	f := newFakeIssuer(t)
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save("T1"))

	c := newTestClient(f, storage)
	state := c.Restore(context.Background())

	assert.Equal(t, StateAuthenticated, state)
	profile, ok := c.Session().Profile()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", profile.Email)
}

func TestRestoreWithStaleCredentialSettlesAnonymous(t *testing.T) {
	f := newFakeIssuer(t)
	storage := &MemoryStorage{}
	require.NoError(t, storage.Save("stale-token"))

	c := newTestClient(f, storage)
	state := c.Restore(context.Background())

	assert.Equal(t, StateAnonymous, state)
	// No refresh token survives a restart, so the 401 could not be fixed
	// by renewal, and the stale entry must be gone.
	stored, _ := storage.Load()
	assert.Empty(t, stored)
}

func TestRestoreWithoutStoredCredential(t *testing.T) {
	f := newFakeIssuer(t)
	c := newTestClient(f, &MemoryStorage{})

	state := c.Restore(context.Background())
	assert.Equal(t, StateAnonymous, state)
	assert.Equal(t, int32(0), f.refreshCount())
}
