package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// stats may be nil, in which case the webhook counters route is skipped.
func RegisterRoutes(e *echo.Echo, stats handler.WebhookStats) {
	e.GET("/healthz", handler.Health)
	if stats != nil {
		e.GET("/healthz/webhooks", handler.WebhookCounts(stats))
	}
}

// RegisterAuth registers login under /v1/auth and the caller info route
// under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated read routes.  cache is applied
// to the event detail route only.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events/:id", ev.GetEvent, cache)
}

// Roles that may book and hold tickets.
var bookingRoles = []string{model.RoleAttendee, model.RoleOrganiser}
