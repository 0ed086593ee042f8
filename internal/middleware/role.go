package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes
    "net/url"
    "strings"

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/cinepass/gateway/internal/guard"
)

// Require enforces a route requirement by running the guard against the
// session resolved by WithSession.  Render lets the request through; a
// redirect decision becomes an HTTP 302 for browser navigations and a JSON
// error carrying the redirect target for API calls, so the SPA router can
// apply it itself.  An unhydrated session answers 503 with Retry-After
// instead of misrouting the visitor.
func Require(req guard.Requirement) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            sess := CurrentSession(c)
            d := guard.Evaluate(sess, req, c.Request().URL.Path)
            switch d.Action {
            case guard.Render:
                return next(c)
            case guard.Loading:
                c.Response().Header().Set("Retry-After", "1")
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session not ready"})
            default:
                return applyRedirect(c, sess.LoggedIn(), d)
            }
        }
    }
}

func applyRedirect(c echo.Context, loggedIn bool, d guard.Decision) error {
    target := d.To
    if d.ReturnTo != "" {
        // Carry the original location so a successful login can return to it.
        target += "?from=" + url.QueryEscape(d.ReturnTo)
    }
    if wantsHTML(c) {
        return c.Redirect(http.StatusFound, target)
    }
    status := http.StatusForbidden
    msg := "forbidden"
    if !loggedIn {
        status = http.StatusUnauthorized
        msg = "authentication required"
    }
    return c.JSON(status, echo.Map{"error": msg, "redirect": target})
}

func wantsHTML(c echo.Context) bool {
    return strings.Contains(c.Request().Header.Get("Accept"), "text/html")
}
