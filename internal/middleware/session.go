package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/cinepass/gateway/internal/session"
)

// WithSession resolves the caller's session once per request and stores it in
// the context for everything downstream (guards, handlers, rate limiting).
// Resolution order: session cookie, then a bearer token in the Authorization
// header (API clients that hold the upstream token directly). A visitor with
// neither gets an empty hydrated session, which the guard treats as
// unauthenticated rather than still-loading.
func WithSession(store *session.Store, cookieName, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				c.Set(ctxKeySID, cookie.Value)
				c.Set(ctxKeySession, store.Load(c.Request().Context(), cookie.Value))
				return next(c)
			}
			if sess, ok := sessionFromBearer(c, jwtSecret); ok {
				c.Set(ctxKeySession, sess)
				return next(c)
			}
			c.Set(ctxKeySession, session.Session{Hydrated: true})
			return next(c)
		}
	}
}
