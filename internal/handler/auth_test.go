package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifle-app/rifle/internal/config"
	"github.com/rifle-app/rifle/internal/model"
	"github.com/rifle-app/rifle/internal/repository"
	"github.com/rifle-app/rifle/internal/utils"
)

// ----- in-memory stores -----

type memUsers struct {
	seq     uint64
	byEmail map[string]model.User
	byID    map[uint64]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]model.User{}, byID: map[uint64]model.User{}}
}

func (m *memUsers) Create(_ context.Context, email, name, password, role string, cost int) (uint64, error) {
	if _, ok := m.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	m.seq++
	u := model.User{ID: m.seq, Email: email, Name: name, PasswordHash: hash, Role: role}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u.ID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type tokenRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type memTokens struct {
	rows map[string]*tokenRow
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]*tokenRow{}} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.rows[hash] = &tokenRow{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	row, ok := m.rows[hash]
	if !ok || row.revoked || time.Now().UTC().After(row.exp) {
		return 0, repository.ErrNotFound
	}
	return row.userID, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	if row, ok := m.rows[hash]; ok {
		row.revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, row := range m.rows {
		if row.userID == userID {
			row.revoked = true
		}
	}
	return nil
}

// ----- helpers -----

func testCfg() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // min cost keeps tests fast
	}
}

func newTestAuth() (*AuthHandler, *memUsers, *memTokens) {
	users := newMemUsers()
	tokens := newMemTokens()
	return NewAuthHandler(testCfg(), users, tokens), users, tokens
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func dataMap(t *testing.T, env envelope) map[string]interface{} {
	t.Helper()
	m, ok := env.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", env.Data)
	return m
}

// ----- tests -----

func TestRegisterIssuesSessionImmediately(t *testing.T) {
	h, _, _ := newTestAuth()

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"A@B.com","password":"longenough"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)
	data := dataMap(t, env)
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "a@b.com", user["email"], "email must be normalized")
	assert.Equal(t, "user", user["role"], "self-registration never grants elevated roles")
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])

	claims, err := utils.ParseAccessToken("test-secret", data["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newTestAuth()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@b.com","password":"longenough"}`},
		{"bad email", `{"name":"Ada","email":"not-an-email","password":"longenough"}`},
		{"short password", `{"name":"Ada","email":"a@b.com","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(t, h.Register, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	h, _, _ := newTestAuth()

	rec, _ := doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"a@b.com","password":"longenough"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Eve","email":"a@b.com","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestLoginDoesNotLeakWhichFieldWasWrong(t *testing.T) {
	h, _, _ := newTestAuth()
	doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"a@b.com","password":"longenough"}`)

	recWrongPass, envWrongPass := doJSON(t, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"wrong-password"}`)
	recNoUser, envNoUser := doJSON(t, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@b.com","password":"longenough"}`)

	assert.Equal(t, http.StatusUnauthorized, recWrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, recNoUser.Code)
	assert.Equal(t, envWrongPass.Error, envNoUser.Error,
		"unknown email and wrong password must be indistinguishable")
}

func TestLoginRefreshRoundTrip(t *testing.T) {
	h, _, _ := newTestAuth()
	doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"a@b.com","password":"longenough"}`)

	rec, env := doJSON(t, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"a@b.com","password":"longenough"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshToken := dataMap(t, env)["refreshToken"].(string)

	rec, env = doJSON(t, h.Refresh, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access := dataMap(t, env)["accessToken"].(string)

	claims, err := utils.ParseAccessToken("test-secret", access)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	h, _, _ := newTestAuth()

	rec, env := doJSON(t, h.Refresh, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"no-such-token"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h, _, _ := newTestAuth()
	_, env := doJSON(t, h.Register, http.MethodPost, "/api/auth/register",
		`{"name":"Ada","email":"a@b.com","password":"longenough"}`)
	refreshToken := dataMap(t, env)["refreshToken"].(string)

	rec, _ := doJSON(t, h.Logout, http.MethodPost, "/api/auth/logout",
		`{"refreshToken":"`+refreshToken+`"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, h.Refresh, http.MethodPost, "/api/auth/refresh",
		`{"refreshToken":"`+refreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a revoked session must not be renewable")
}

func TestMeReturnsFreshProfile(t *testing.T) {
	h, users, _ := newTestAuth()
	uid, err := users.Create(context.Background(), "a@b.com", "Ada", "longenough", model.RoleOrganizer, 4)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data := dataMap(t, env)
	assert.Equal(t, "a@b.com", data["email"])
	assert.Equal(t, "organizer", data["role"])
}
