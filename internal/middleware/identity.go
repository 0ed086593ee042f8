package middleware

// identity.go defines helper functions shared across middleware files: typed
// accessors for the session, session id and user id stored in the Echo
// context by WithSession. Missing values come back as zero values, never as
// panics.

import (
    "github.com/labstack/echo/v4"

    "github.com/cinepass/gateway/internal/session"
)

const (
    ctxKeySession = "session"
    ctxKeySID     = "sid"
)

// CurrentSession returns the hydrated session stored by WithSession. When the
// middleware did not run, an unhydrated zero session is returned so the guard
// holds its decision instead of misclassifying the visitor.
func CurrentSession(c echo.Context) session.Session {
    if v, ok := c.Get(ctxKeySession).(session.Session); ok {
        return v
    }
    return session.Session{}
}

// SessionID returns the request's session id, or "" for a fresh visitor.
func SessionID(c echo.Context) string {
    if v, ok := c.Get(ctxKeySID).(string); ok {
        return v
    }
    return ""
}

// CurrentUserID returns the platform user id from the session profile, or "".
func CurrentUserID(c echo.Context) string {
    sess := CurrentSession(c)
    if sess.User != nil {
        return sess.User.ID
    }
    return ""
}
