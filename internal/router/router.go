package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/handler"
	"github.com/iliyamo/event-rsvp/internal/middleware"
	"github.com/iliyamo/event-rsvp/internal/model"
)

// RegisterHealth registers the unauthenticated health check. Load
// balancers and monitoring probe this endpoint.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers registration, login and the /v1/me probe.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterEvents registers public event browsing and admin event
// management.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, s *handler.SeatHandler, jwtSecret string) {
	// Anyone can browse events and seat maps.
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/:id", h.Get)
	e.GET("/v1/events/:id/seats", s.ListByEvent)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/events", h.Create)
	admin.PUT("/events/:id", h.Update)
	admin.DELETE("/events/:id", h.Delete)
	admin.POST("/seats/:id/block", s.Block)
	admin.POST("/seats/:id/unblock", s.Unblock)
}

// RegisterRsvps registers the booking and cancellation surface. The
// booking routes sit behind optional auth so one endpoint serves both
// registered users and guests, plus the rate limiter when one is
// configured.
func RegisterRsvps(e *echo.Echo, h *handler.RsvpHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	booking := e.Group("/v1")
	booking.Use(middleware.OptionalJWTAuth(jwtSecret))
	if limiter != nil {
		booking.Use(limiter)
	}
	booking.POST("/events/:id/rsvp", h.Rsvp)
	booking.POST("/events/:id/guest-rsvp", h.GuestRsvp)
	booking.DELETE("/rsvps/:id", h.Cancel)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/my-rsvps", h.ListMine)
	auth.GET("/rsvps/:id", h.Get)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/rsvps", h.ListAll)
}
