package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/model"
	"github.com/cinepass/gateway/internal/role"
	"github.com/cinepass/gateway/internal/upstream"
)

// Backend is the slice of the platform API the store needs. *upstream.Client
// satisfies it; tests substitute their own.
type Backend interface {
	Login(ctx context.Context, email, password string) (upstream.LoginResult, error)
	AdminLogin(ctx context.Context, email, password string) (upstream.LoginResult, error)
	Profile(ctx context.Context, token string) (*model.User, error)
}

// Intent selects which login endpoint a credential pair is submitted to.
type Intent string

const (
	IntentUser  Intent = "USER"
	IntentAdmin Intent = "ADMIN"
)

// Store manages sessions: authenticates against the platform, mirrors every
// mutation to durable storage, and hydrates sessions back per request.
// Concurrent mutations of the same session id are not serialized against each
// other; last write wins, matching the reference behavior.
type Store struct {
	backend Backend
	storage Storage
	log     *zap.Logger
}

func NewStore(backend Backend, storage Storage, log *zap.Logger) *Store {
	return &Store{backend: backend, storage: storage, log: log}
}

// Login authenticates and returns the populated session. The role is resolved
// in priority order: role inside the response's user object, top-level role,
// ADMIN when the intent was admin, role claims decoded from the token payload,
// else USER, then collapsed to the coarse ADMIN/USER pair; theatre and
// super roles are refined later by RefreshProfile. On failure the stored
// session is left untouched.
func (st *Store) Login(ctx context.Context, sid, email, password string, intent Intent) (Session, error) {
	var res upstream.LoginResult
	var err error
	if intent == IntentAdmin {
		res, err = st.backend.AdminLogin(ctx, email, password)
	} else {
		res, err = st.backend.Login(ctx, email, password)
		// The customer endpoint rejects admin accounts with a "use admin
		// login" hint; retry once against the admin endpoint transparently.
		if err != nil && wantsAdminLogin(err) {
			st.log.Debug("login retry against admin endpoint", zap.String("email", email))
			res, err = st.backend.AdminLogin(ctx, email, password)
		}
	}
	if err != nil {
		return Session{}, err
	}

	resolved := role.Normalize(res.UserRole)
	if resolved == role.None {
		resolved = role.Normalize(res.TopRole)
	}
	if resolved == role.None && intent == IntentAdmin {
		resolved = role.Admin
	}
	if resolved == role.None {
		resolved = EffectiveRole(roleFromToken(res.Token).Set())
	}
	r := role.CollapseForLogin(resolved)

	rec, err := st.storage.Load(ctx, sid)
	if err != nil {
		st.log.Warn("session load before login failed", zap.Error(err))
		rec = Record{}
	}
	// Admin and user tokens are tracked separately so both kinds of session
	// can coexist; the admin token wins at hydration.
	if r == role.Admin {
		rec.AdminToken = res.Token
	} else {
		rec.Token = res.Token
	}
	rec.Role = string(r)
	rec.User = marshalUser(res.User)
	if err := st.storage.Save(ctx, sid, rec); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	return Session{Token: res.Token, Role: r, User: res.User, Hydrated: true}, nil
}

// Logout clears the session locally. It never calls the platform; token
// revocation, when wanted, is the platform's own concern.
func (st *Store) Logout(ctx context.Context, sid string) {
	if err := st.storage.Delete(ctx, sid); err != nil {
		st.log.Warn("session delete failed", zap.String("sid", sid), zap.Error(err))
	}
}

// Load hydrates a session from durable storage. Corrupt stored user data is
// treated as absent. A storage failure yields an unhydrated session so the
// guard renders its neutral loading state instead of redirecting.
func (st *Store) Load(ctx context.Context, sid string) Session {
	rec, err := st.storage.Load(ctx, sid)
	if err != nil {
		st.log.Warn("session load failed", zap.String("sid", sid), zap.Error(err))
		return Session{}
	}
	token := rec.AdminToken
	if token == "" {
		token = rec.Token
	}
	sess := Session{Token: token, Role: role.Normalize(rec.Role), Hydrated: true}
	if len(rec.User) > 0 {
		var u model.User
		if err := json.Unmarshal(rec.User, &u); err == nil {
			sess.User = &u
		}
	}
	return sess
}

// RefreshProfile fetches the current profile and replaces the stored user,
// refining the session role from profile data. An upstream 401/403 is an
// implicit logout: the session is cleared and nil is returned without error,
// since an expired token during a background refresh must not crash the
// caller.
func (st *Store) RefreshProfile(ctx context.Context, sid string) (*model.User, error) {
	sess := st.Load(ctx, sid)
	if !sess.LoggedIn() {
		return nil, nil
	}
	u, err := st.backend.Profile(ctx, sess.Token)
	if err != nil {
		if errors.Is(err, upstream.ErrSessionExpired) {
			st.log.Info("token expired during profile refresh, clearing session", zap.String("sid", sid))
			st.Logout(ctx, sid)
			return nil, nil
		}
		return nil, err
	}

	refined := EffectiveRole(role.Union(
		role.Source{Role: string(sess.Role)},
		role.Source{Role: u.Role, Roles: u.Roles},
	))
	if refined == role.None {
		refined = sess.Role
	}

	rec, err := st.storage.Load(ctx, sid)
	if err == nil {
		rec.Role = string(refined)
		rec.User = marshalUser(u)
		if err := st.storage.Save(ctx, sid, rec); err != nil {
			st.log.Warn("persist refreshed profile failed", zap.Error(err))
		}
	}
	return u, nil
}

func marshalUser(u *model.User) []byte {
	if u == nil {
		return nil
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return nil
	}
	return raw
}

// wantsAdminLogin detects the customer endpoint's "this is an admin account,
// use admin login" rejection by substring, the only signal the platform
// gives.
func wantsAdminLogin(err error) bool {
	var ae *upstream.AuthError
	if !errors.As(err, &ae) {
		return false
	}
	return strings.Contains(strings.ToLower(ae.Message), "admin login")
}
