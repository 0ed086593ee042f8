package router // package router defines how HTTP routes are registered for the gateway

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/cinepass/gateway/internal/config"     // env-driven middleware configuration
	"github.com/cinepass/gateway/internal/guard"      // route requirements and redirect rules
	"github.com/cinepass/gateway/internal/handler"    // import the handlers that implement gateway logic
	"github.com/cinepass/gateway/internal/middleware" // session resolution, guarding, limits and caching
	"github.com/cinepass/gateway/internal/role"
	"github.com/cinepass/gateway/internal/session"
)

// RegisterRoutes registers routes that do not require a session on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the gateway is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Login and logout live under
// /v1/auth; the hydration and routing helpers live under /v1 behind the
// session middleware so every request carries a resolved session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, store *session.Store, cfg config.Config, scfg config.SessionConfig, rdb *redis.Client) {
	sess := middleware.WithSession(store, scfg.CookieName, cfg.JWTSecret)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Credential submission is rate limited per client to blunt stuffing.
	g := e.Group("/v1/auth", sess)
	g.POST("/login", a.Login, limit)
	g.POST("/logout", a.Logout)

	v1 := e.Group("/v1", sess)
	// Session summary the SPA reads before first paint.
	v1.GET("/session", a.Session)
	// Profile refresh; an expired upstream token logs out implicitly.
	v1.GET("/me", a.Me)
	// Canonical-destination routers for "/", "/admin" and "/admin/login".
	v1.GET("/home", a.Home)
	v1.GET("/admin-login", a.AdminLogin)
}

// RegisterNotifications wires the feed endpoints.  Every route requires a
// logged-in session; the guard answers the proper redirect when it is absent.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, store *session.Store, cfg config.Config, scfg config.SessionConfig) {
	g := e.Group("/v1/notifications",
		middleware.WithSession(store, scfg.CookieName, cfg.JWTSecret),
		middleware.Require(guard.Requirement{}))
	g.GET("", n.List)
	g.GET("/stream", n.Stream)
	g.POST("/read-all", n.ReadAll)
	g.POST("/:key/open", n.Open)
}

// RegisterAnalytics exposes the daily revenue series to elevated roles only.
// Responses are cached in Redis since the series changes at push cadence,
// not per request.
func RegisterAnalytics(e *echo.Echo, h *handler.AnalyticsHandler, store *session.Store, cfg config.Config, scfg config.SessionConfig, rdb *redis.Client) {
	g := e.Group("/v1/analytics",
		middleware.WithSession(store, scfg.CookieName, cfg.JWTSecret),
		middleware.Require(guard.Requirement{Roles: []role.Role{role.Admin, role.TheatreAdmin}}),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	g.GET("/daily", h.Daily)
}
