package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/guard"
	"github.com/cinepass/gateway/internal/role"
	"github.com/cinepass/gateway/internal/session"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func newSessionStore(t *testing.T, seed map[string]session.Record) *session.Store {
	t.Helper()
	storage := session.NewMemoryStorage()
	for sid, rec := range seed {
		require.NoError(t, storage.Save(context.Background(), sid, rec))
	}
	return session.NewStore(nil, storage, zap.NewNop())
}

func TestWithSessionFromCookie(t *testing.T) {
	store := newSessionStore(t, map[string]session.Record{
		"s1": {Token: "tok", Role: "USER"},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: "cp_sid", Value: "s1"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got session.Session
	h := WithSession(store, "cp_sid", "")(func(c echo.Context) error {
		got = CurrentSession(c)
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.True(t, got.Hydrated)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, role.User, got.Role)
	assert.Equal(t, "s1", SessionID(c))
}

func TestWithSessionWithoutCredentials(t *testing.T) {
	store := newSessionStore(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var got session.Session
	h := WithSession(store, "cp_sid", "")(func(c echo.Context) error {
		got = CurrentSession(c)
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.True(t, got.Hydrated, "fresh visitor is unauthenticated, not still-loading")
	assert.False(t, got.LoggedIn())
}

func TestWithSessionFromBearer(t *testing.T) {
	secret := "shh"
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "theater_admin"}).
		SignedString([]byte(secret))
	require.NoError(t, err)

	store := newSessionStore(t, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	c := e.NewContext(req, httptest.NewRecorder())

	var got session.Session
	h := WithSession(store, "cp_sid", secret)(func(c echo.Context) error {
		got = CurrentSession(c)
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.Equal(t, role.TheatreAdmin, got.Role)
	assert.Equal(t, tok, got.Token)
}

func TestWithSessionRejectsBadSignature(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).
		SignedString([]byte("wrong"))
	require.NoError(t, err)

	store := newSessionStore(t, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	c := e.NewContext(req, httptest.NewRecorder())

	var got session.Session
	h := WithSession(store, "cp_sid", "shh")(func(c echo.Context) error {
		got = CurrentSession(c)
		return okHandler(c)
	})
	require.NoError(t, h(c))
	assert.False(t, got.LoggedIn())
}

func requireCtx(t *testing.T, sess session.Session, path, accept string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ctxKeySession, sess)
	return c, rec
}

func TestRequireRendersOnMatch(t *testing.T) {
	sess := session.Session{Token: "tok", Role: role.Admin, Hydrated: true}
	c, rec := requireCtx(t, sess, "/admin/users", "")
	h := Require(guard.Requirement{Roles: []role.Role{role.Admin}})(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUnauthenticatedJSON(t *testing.T) {
	sess := session.Session{Hydrated: true}
	c, rec := requireCtx(t, sess, "/admin/users", "")
	h := Require(guard.Requirement{Roles: []role.Role{role.Admin}})(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), guard.AdminLoginPath)
	assert.Contains(t, rec.Body.String(), "from=")
}

func TestRequireUnauthenticatedHTMLRedirects(t *testing.T) {
	sess := session.Session{Hydrated: true}
	c, rec := requireCtx(t, sess, "/admin/users", "text/html,application/xhtml+xml")
	h := Require(guard.Requirement{Roles: []role.Role{role.Admin}})(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), guard.AdminLoginPath)
}

func TestRequireDenyForbidden(t *testing.T) {
	sess := session.Session{Token: "tok", Role: role.User, Hydrated: true}
	c, rec := requireCtx(t, sess, "/admin/users", "")
	h := Require(guard.Requirement{Roles: []role.Role{role.Admin}})(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireLoadingAnswers503(t *testing.T) {
	c, rec := requireCtx(t, session.Session{}, "/admin/users", "")
	h := Require(guard.Requirement{Roles: []role.Role{role.Admin}})(okHandler)
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
