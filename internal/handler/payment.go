package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// PaymentReconciler settles payments from clients and the provider.
type PaymentReconciler interface {
	VerifyClient(ctx context.Context, req service.VerifyRequest) (service.Outcome, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) service.WebhookReport
}

type PaymentHandler struct {
	Reconciler PaymentReconciler
}

type verifyReq struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	RequestedBy uint64 `json:"requestedBy"`
}

// maxWebhookBody bounds what is read from the provider.
const maxWebhookBody = 1 << 20

// VerifyPayment handles POST /v1/verify-payments.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := requester(c, req.RequestedBy)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.Reconciler.VerifyClient(c.Request().Context(), service.VerifyRequest{
		UserID:    uid,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Status:    req.Status,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":           bookedMessage,
		"createdTickets":    out.Tickets,
		"alreadyReconciled": out.AlreadyReconciled,
	})
}

// PaymentWebhook handles POST /v1/verify-payments-webhook.  The provider
// always gets 200 {"status":"ok"}; outcomes go to the reconciler's
// observers.  The body is read raw because the signature covers its exact
// bytes.
func (h *PaymentHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	sig := c.Request().Header.Get(gateway.SignatureHeader)
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		logger.FromContext(ctx, nil).Error("webhook body unreadable",
			zap.Int("bytes_read", len(body)),
			zap.Bool("signed", sig != ""),
			zap.Error(err),
		)
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	h.Reconciler.HandleWebhook(ctx, body, sig)
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
