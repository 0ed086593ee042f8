package session

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/model"
	"github.com/cinepass/gateway/internal/role"
	"github.com/cinepass/gateway/internal/upstream"
)

// fakeBackend scripts the platform responses per endpoint.
type fakeBackend struct {
	loginRes      upstream.LoginResult
	loginErr      error
	adminRes      upstream.LoginResult
	adminErr      error
	profile       *model.User
	profileErr    error
	loginCalls    int
	adminCalls    int
}

func (f *fakeBackend) Login(context.Context, string, string) (upstream.LoginResult, error) {
	f.loginCalls++
	return f.loginRes, f.loginErr
}

func (f *fakeBackend) AdminLogin(context.Context, string, string) (upstream.LoginResult, error) {
	f.adminCalls++
	return f.adminRes, f.adminErr
}

func (f *fakeBackend) Profile(context.Context, string) (*model.User, error) {
	return f.profile, f.profileErr
}

func newTestStore(b Backend) (*Store, *MemoryStorage) {
	storage := NewMemoryStorage()
	return NewStore(b, storage, zap.NewNop()), storage
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

func TestLoginRolePriorityBodyUserRole(t *testing.T) {
	b := &fakeBackend{loginRes: upstream.LoginResult{
		Token:    "tok",
		UserRole: "theater_admin",
		TopRole:  "user",
	}}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	// Admin-like values collapse to ADMIN at login time.
	assert.Equal(t, role.Admin, sess.Role)
}

func TestLoginRolePriorityTopRole(t *testing.T) {
	b := &fakeBackend{loginRes: upstream.LoginResult{Token: "tok", TopRole: "superadmin"}}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, sess.Role)
}

func TestLoginIntentAdminDefault(t *testing.T) {
	b := &fakeBackend{adminRes: upstream.LoginResult{Token: "tok"}}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentAdmin)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, sess.Role)
	assert.Equal(t, 1, b.adminCalls)
	assert.Equal(t, 0, b.loginCalls)
}

func TestLoginRoleFromTokenClaims(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "1", "role": "manager"})
	b := &fakeBackend{loginRes: upstream.LoginResult{Token: tok}}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, sess.Role)
}

func TestLoginDefaultsToUser(t *testing.T) {
	b := &fakeBackend{loginRes: upstream.LoginResult{Token: "opaque-token"}}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	assert.Equal(t, role.User, sess.Role)
}

func TestLoginMissingTokenLeavesSessionUntouched(t *testing.T) {
	b := &fakeBackend{loginErr: &upstream.AuthError{Code: upstream.CodeMissingToken, Message: "login response carried no token"}}
	st, storage := newTestStore(b)
	_, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	var ae *upstream.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, upstream.CodeMissingToken, ae.Code)
	rec, _ := storage.Load(context.Background(), "s1")
	assert.Empty(t, rec.Token)
	assert.Empty(t, rec.Role)
}

func TestLoginRetriesAdminEndpointOnHint(t *testing.T) {
	b := &fakeBackend{
		loginErr: &upstream.AuthError{Code: "login_failed", Message: "This is an admin account, please use admin login"},
		adminRes: upstream.LoginResult{Token: "tok", TopRole: "ADMIN"},
	}
	st, _ := newTestStore(b)
	sess, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	assert.Equal(t, role.Admin, sess.Role)
	assert.Equal(t, 1, b.loginCalls)
	assert.Equal(t, 1, b.adminCalls)
}

func TestLoginOtherErrorsPropagate(t *testing.T) {
	b := &fakeBackend{loginErr: &upstream.AuthError{Code: "login_failed", Message: "invalid credentials"}}
	st, _ := newTestStore(b)
	_, err := st.Login(context.Background(), "s1", "a@b.c", "pw", IntentUser)
	require.Error(t, err)
	assert.EqualError(t, err, "invalid credentials")
	assert.Equal(t, 0, b.adminCalls)
}

func TestAdminAndUserTokensCoexist(t *testing.T) {
	b := &fakeBackend{
		loginRes: upstream.LoginResult{Token: "user-tok", UserRole: "user"},
		adminRes: upstream.LoginResult{Token: "admin-tok", TopRole: "admin"},
	}
	st, _ := newTestStore(b)
	ctx := context.Background()
	_, err := st.Login(ctx, "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	_, err = st.Login(ctx, "s1", "a@b.c", "pw", IntentAdmin)
	require.NoError(t, err)

	// Admin token takes priority at hydration.
	sess := st.Load(ctx, "s1")
	assert.Equal(t, "admin-tok", sess.Token)
	assert.True(t, sess.Hydrated)
}

func TestLoadCorruptUserTreatedAsAbsent(t *testing.T) {
	st, storage := newTestStore(&fakeBackend{})
	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, "s1", Record{Token: "tok", Role: "USER", User: []byte("{not json")}))
	sess := st.Load(ctx, "s1")
	assert.Equal(t, "tok", sess.Token)
	assert.Nil(t, sess.User)
}

func TestLogoutClearsEverything(t *testing.T) {
	b := &fakeBackend{loginRes: upstream.LoginResult{Token: "tok", UserRole: "user"}}
	st, _ := newTestStore(b)
	ctx := context.Background()
	_, err := st.Login(ctx, "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)
	st.Logout(ctx, "s1")
	sess := st.Load(ctx, "s1")
	assert.False(t, sess.LoggedIn())
	assert.Equal(t, role.None, sess.Role)
}

func TestRefreshProfileRefinesRole(t *testing.T) {
	b := &fakeBackend{
		adminRes: upstream.LoginResult{Token: "tok", TopRole: "admin"},
		profile:  &model.User{ID: "7", Email: "a@b.c", Roles: []string{"super_admin"}},
	}
	st, _ := newTestStore(b)
	ctx := context.Background()
	_, err := st.Login(ctx, "s1", "a@b.c", "pw", IntentAdmin)
	require.NoError(t, err)

	u, err := st.RefreshProfile(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, u)
	sess := st.Load(ctx, "s1")
	assert.Equal(t, role.SuperAdmin, sess.Role)
	require.NotNil(t, sess.User)
	assert.Equal(t, "7", sess.User.ID)
}

func TestRefreshProfileExpiredTokenIsImplicitLogout(t *testing.T) {
	b := &fakeBackend{
		loginRes:   upstream.LoginResult{Token: "tok", UserRole: "user"},
		profileErr: upstream.ErrSessionExpired,
	}
	st, _ := newTestStore(b)
	ctx := context.Background()
	_, err := st.Login(ctx, "s1", "a@b.c", "pw", IntentUser)
	require.NoError(t, err)

	u, err := st.RefreshProfile(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.False(t, st.Load(ctx, "s1").LoggedIn())
}

func TestRefreshProfileWithoutTokenIsNoop(t *testing.T) {
	st, _ := newTestStore(&fakeBackend{})
	u, err := st.RefreshProfile(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, u)
}
