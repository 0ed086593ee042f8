package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cinepass/gateway/internal/guard"
	"github.com/cinepass/gateway/internal/middleware"
	"github.com/cinepass/gateway/internal/model"
	"github.com/cinepass/gateway/internal/notification"
	"github.com/cinepass/gateway/internal/session"
	"github.com/cinepass/gateway/internal/upstream"
)

// AuthHandler bundles dependencies for session endpoints.
type AuthHandler struct {
	Store         *session.Store
	Notifications *notification.Manager
	CookieName    string
	CookieTTL     time.Duration
	Secure        bool
	Log           *zap.Logger
}

func NewAuthHandler(store *session.Store, mgr *notification.Manager, cookieName string, ttl time.Duration, secure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Store: store, Notifications: mgr, CookieName: cookieName, CookieTTL: ttl, Secure: secure, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Intent   string `json:"intent"` // USER | ADMIN
}

type sessionResp struct {
	Authenticated bool        `json:"authenticated"`
	Role          string      `json:"role,omitempty"`
	Home          string      `json:"home,omitempty"`
	User          *model.User `json:"user,omitempty"`
	Unread        int         `json:"unread"`
}

// Login submits credentials to the platform and binds the resulting token to
// a gateway session cookie. The intent picks the customer or admin endpoint;
// the resolved coarse role decides which home the SPA should land on.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	intent := session.IntentUser
	if strings.EqualFold(strings.TrimSpace(req.Intent), string(session.IntentAdmin)) {
		intent = session.IntentAdmin
	}

	sid := middleware.SessionID(c)
	if sid == "" {
		sid = uuid.NewString()
	}

	sess, err := h.Store.Login(c.Request().Context(), sid, req.Email, req.Password, intent)
	if err != nil {
		var authErr *upstream.AuthError
		status := http.StatusBadGateway
		msg := "login unavailable"
		if errors.As(err, &authErr) {
			status = http.StatusUnauthorized
			msg = authErr.Message
		}
		return c.JSON(status, echo.Map{"error": msg})
	}

	// Whatever feed the sid was serving belonged to the pre-login identity.
	h.Notifications.Drop(sid)

	c.SetCookie(h.sessionCookie(sid, h.CookieTTL))
	return c.JSON(http.StatusOK, sessionResp{
		Authenticated: true,
		Role:          string(sess.Role),
		Home:          guard.DestinationFor(session.EffectiveRole(sess.RoleSet())),
		User:          sess.User,
	})
}

// Logout drops the server-side session and its notification feed, then
// expires the cookie. The platform token is not revoked upstream.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := middleware.SessionID(c); sid != "" {
		h.Store.Logout(c.Request().Context(), sid)
		h.Notifications.Drop(sid)
	}
	c.SetCookie(h.sessionCookie("", -time.Hour))
	return c.NoContent(http.StatusNoContent)
}

// Session reports the hydrated session so the SPA can route before painting.
func (h *AuthHandler) Session(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if !sess.LoggedIn() {
		return c.JSON(http.StatusOK, sessionResp{Authenticated: false})
	}
	resp := sessionResp{
		Authenticated: true,
		Role:          string(sess.Role),
		Home:          guard.DestinationFor(session.EffectiveRole(sess.RoleSet())),
		User:          sess.User,
	}
	if feed := h.Notifications.Feed(c.Request().Context(), middleware.SessionID(c), sess); feed != nil {
		resp.Unread = feed.Unread()
	}
	return c.JSON(http.StatusOK, resp)
}

// Me refreshes the profile from the platform. An expired upstream token logs
// the session out implicitly and answers 401 so the SPA returns to login.
func (h *AuthHandler) Me(c echo.Context) error {
	sid := middleware.SessionID(c)
	sess := middleware.CurrentSession(c)
	if sid == "" || !sess.LoggedIn() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	u, err := h.Store.RefreshProfile(c.Request().Context(), sid)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "profile unavailable"})
	}
	if u == nil {
		// Session expired upstream; the store already cleared it.
		h.Notifications.Drop(sid)
		c.SetCookie(h.sessionCookie("", -time.Hour))
		back := guard.LoginPath
		if sess.Role.Elevated() {
			back = guard.AdminLoginPath
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired", "redirect": back})
	}
	return c.JSON(http.StatusOK, u)
}

// Home resolves where the SPA should route the visitor right now. The SPA
// calls it for the "/" index, the admin index and the post-login landing.
func (h *AuthHandler) Home(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	adminSurface := c.QueryParam("surface") == "admin"
	d := guard.RouteHome(sess, c.QueryParam("from"), adminSurface)
	return c.JSON(http.StatusOK, echo.Map{"action": d.Action.String(), "to": d.To})
}

// AdminLogin backs the admin login page itself: an already-elevated visitor
// is told to go to their dashboard instead of seeing the form again.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	d := guard.AdminLoginRedirect(middleware.CurrentSession(c))
	return c.JSON(http.StatusOK, echo.Map{"action": d.Action.String(), "to": d.To})
}

func (h *AuthHandler) sessionCookie(sid string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
