package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rifle-app/rifle/internal/config"
	"github.com/rifle-app/rifle/internal/handler"
	"github.com/rifle-app/rifle/internal/middleware"
	"github.com/rifle-app/rifle/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth      *handler.AuthHandler
	Events    *handler.EventHandler
	Tickets   *handler.TicketHandler
	Dashboard *handler.DashboardHandler
}

// Register wires all application routes onto the provided Echo instance.
// The API splits into three surfaces:
//   - /healthz and public event browsing, no authentication;
//   - /api/auth/*, the credential issuer, rate limited;
//   - /api/*, protected resources behind the JWT middleware.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	// Credential issuer.  Login and refresh are the endpoints a stolen
	// credential list would hammer, so the whole group sits behind the
	// token bucket.  Logout handles its own bearer parsing so that a
	// client whose access token already expired can still end a session
	// with its refresh token.
	auth := e.Group("/api/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Public browsing: the event listing is the hot read path and is
	// served from the Redis response cache when possible.
	e.GET("/api/events", h.Events.List, cache)
	e.GET("/api/events/:id", h.Events.Get)

	// Everything below requires a valid access token.
	api := e.Group("/api")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	api.GET("/auth/me", h.Auth.Me)

	organizer := middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin)
	api.POST("/events", h.Events.Create, organizer)
	api.PUT("/events/:id", h.Events.Update, organizer)
	api.DELETE("/events/:id", h.Events.Delete, organizer)

	api.POST("/events/:id/tickets", h.Tickets.Purchase)
	api.GET("/tickets", h.Tickets.List)
	api.POST("/tickets/:id/validate", h.Tickets.Validate, organizer)

	api.GET("/dashboard/organizer", h.Dashboard.Organizer, organizer)
	api.GET("/dashboard/admin", h.Dashboard.Admin, middleware.RequireRole(model.RoleAdmin))
}
