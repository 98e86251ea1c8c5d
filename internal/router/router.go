// Package router wires HTTP routes to their handlers and middleware.
// Routes fall into four tiers: open health/auth endpoints, public
// browse endpoints (cached and rate limited when Redis is up), player
// endpoints behind JWT, and field administration behind the ADMIN
// role.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/handler"
	"github.com/pitchside/pitchside/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout takes the raw refresh token in the body and revokes it; no
	// JWT is required so an expired access token cannot trap a session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("PLAYER", "ADMIN"))
	auth.GET("/me", a.Me)
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterPublic registers the unauthenticated browse endpoints: the
// field catalogue, per-field availability grids and the public event
// feed. When Redis is available the responses are cached and the
// routes are rate limited; with a nil client both middlewares are
// no-ops.
func RegisterPublic(e *echo.Echo, f *handler.FieldHandler, ev *handler.EventHandler, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	g.GET("/fields", f.List)
	g.GET("/fields/:id", f.GetByID)
	// Availability derives slot statuses from active events; the booked
	// set is fetched per request so a fresh booking shows immediately.
	g.GET("/fields/:id/availability", ev.Availability)
	g.GET("/fields/:id/events", ev.ListByField)
	g.GET("/events", ev.ListPublic)
}

// RegisterPlayer registers the endpoints available to every
// authenticated user: event booking and participation, groups and
// invitations, and the notification inbox.
func RegisterPlayer(e *echo.Echo, ev *handler.EventHandler, g *handler.GroupHandler, n *handler.NotificationHandler, jwtSecret string) {
	p := e.Group("/v1")
	p.Use(middleware.JWTAuth(jwtSecret))
	p.Use(middleware.RequireRole("PLAYER", "ADMIN"))

	// Events
	p.POST("/events", ev.Create)
	p.GET("/events/mine", ev.ListMine)
	p.GET("/events/:id", ev.GetByID)
	p.PATCH("/events/:id", ev.Update)
	p.POST("/events/:id/cancel", ev.Cancel)
	p.POST("/events/:id/complete", ev.Complete)
	p.POST("/events/:id/join", ev.Join)
	p.POST("/events/:id/leave", ev.Leave)

	// Groups and invitations
	p.POST("/groups", g.Create)
	p.GET("/groups", g.ListMine)
	p.GET("/groups/:id", g.GetByID)
	p.POST("/groups/:id/invites", g.Invite)
	p.GET("/invites", g.ListInvites)
	p.POST("/invites/:id/respond", g.Respond)

	// Notifications
	p.GET("/notifications", n.ListMine)
	p.POST("/notifications/:id/read", n.MarkRead)
}

// RegisterAdmin registers field administration endpoints. Only ADMIN
// accounts may mutate the catalogue or force a mirror rebuild.
func RegisterAdmin(e *echo.Echo, f *handler.FieldHandler, jwtSecret string) {
	a := e.Group("/v1/admin")
	a.Use(middleware.JWTAuth(jwtSecret))
	a.Use(middleware.RequireRole("ADMIN"))

	a.POST("/fields", f.Create)
	a.PATCH("/fields/:id", f.Update)
	a.POST("/fields/refresh", f.Refresh)
}
