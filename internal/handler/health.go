package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns a
// plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// WebhookStats reports delivery counts per outcome.
type WebhookStats interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// WebhookCounts serves GET /healthz/webhooks.  Operators watch it because
// the provider is always answered 200 and never sees local failures.
func WebhookCounts(stats WebhookStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		counts, err := stats.Counts(ctx)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "counters unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"webhooks": counts})
	}
}
