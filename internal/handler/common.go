package handler // handler defines http handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/service"
)

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated caller set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errNoUser
	}
	return id, nil
}

// requester resolves whom a request acts for.  Bodies may name the user in
// requestedBy; it has to be the caller.  An absent requestedBy means the
// caller.
func requester(c echo.Context, requestedBy uint64) (uint64, error) {
	uid, err := getUserID(c)
	if err != nil {
		return 0, &service.Error{Kind: service.ErrUnauthorized, Msg: "unauthorized"}
	}
	if requestedBy != 0 && requestedBy != uid {
		return 0, &service.Error{Kind: service.ErrForbidden, Msg: "requestedBy does not match the authenticated user"}
	}
	return uid, nil
}

// statusOf maps service error kinds onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrPaymentFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPaymentPending), errors.Is(err, service.ErrAlreadyCheckedIn):
		return http.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": msg}.  Server-side failures are logged with
// their cause; the client only sees the message.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context(), nil).Error("request failed", zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": service.Message(err)})
}
