package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, zap.NewNop())
}

func TestLoginReadsTokenAndRoles(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.Write([]byte(`{"token":"tok-1","role":"ADMIN","user":{"id":"u1","role":"theater_admin"}}`))
	})

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "theater_admin", res.UserRole)
	assert.Equal(t, "ADMIN", res.TopRole)
	require.NotNil(t, res.User)
	assert.Equal(t, "u1", res.User.ID)
}

func TestLoginAcceptsNestedToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"nested"}}`))
	})
	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "nested", res.Token)
}

func TestLoginMissingToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":"u1"}}`))
	})
	_, err := c.Login(context.Background(), "a@b.c", "pw")
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, CodeMissingToken, aerr.Code)
}

func TestLoginErrorCarriesServerMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"use admin login for this account"}`))
	})
	_, err := c.Login(context.Background(), "a@b.c", "pw")
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "use admin login for this account", aerr.Message)
}

func TestAdminLoginHitsAdminPath(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/admin/login", r.URL.Path)
		w.Write([]byte(`{"token":"tok"}`))
	})
	_, err := c.AdminLogin(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
}

func TestProfileUnwrapsEnvelope(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user":{"id":"u1","name":"Dana"}}`))
	})
	u, err := c.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Dana", u.Name)
}

func TestProfileExpiredToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Profile(context.Background(), "tok")
	assert.True(t, errors.Is(err, ErrSessionExpired))
}

func TestNotificationsAcceptsBothShapes(t *testing.T) {
	wrapped := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items":[{"id":"n1","title":"hi"}]}`))
	})
	items, err := wrapped.Notifications(context.Background(), "tok", 25, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)

	bare := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "th-9", r.URL.Query().Get("theatreId"))
		w.Write([]byte(`[{"id":"n2"}]`))
	})
	items, err = bare.Notifications(context.Background(), "tok", 25, "th-9")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n2", items[0].ID)
}

func TestOpenParsesReceipt(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/n1/open", r.URL.Path)
		w.Write([]byte(`{"readAt":"` + at.Format(time.RFC3339) + `","readBy":"u1"}`))
	})
	rec, err := c.Open(context.Background(), "tok", "n1")
	require.NoError(t, err)
	require.NotNil(t, rec.ReadAt)
	assert.True(t, rec.ReadAt.Equal(at))
	assert.Equal(t, "u1", rec.ReadBy)
}

func TestStreamURL(t *testing.T) {
	c := New("https://api.example.com/", time.Second, zap.NewNop())
	u := c.StreamURL("tok", "admin", "th-1", "seed-1")
	assert.Contains(t, u, "https://api.example.com/api/notifications/stream?")
	assert.Contains(t, u, "scope=admin")
	assert.Contains(t, u, "theatreId=th-1")
	assert.Contains(t, u, "seed=seed-1")
}
