package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// Intent is returned to the client, which completes payment with the
// provider's checkout using ID.
type Intent struct {
	ID          string `json:"id"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// IntentService opens provider orders for paid bookings and records each
// as a pending payment.
type IntentService struct {
	gateway    PaymentGateway
	payments   PaymentStore
	currency   string
	newReceipt func() string
	log        *zap.Logger
}

// NewIntentService wires an IntentService charging in currency.
func NewIntentService(gw PaymentGateway, payments PaymentStore, currency string, log *zap.Logger) *IntentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IntentService{
		gateway:    gw,
		payments:   payments,
		currency:   currency,
		newReceipt: uuid.NewString,
		log:        log,
	}
}

// Amount is the order total in minor units for count tickets at price
// major units each.
func Amount(count int, price int64) int64 {
	return int64(count) * price * 100
}

// Create opens a provider order for req and persists it as pending.
func (s *IntentService) Create(ctx context.Context, req TicketRequest) (Intent, error) {
	if req.Event.IsFree {
		return Intent{}, newErr(ErrValidation, "free events do not take payment", nil)
	}
	if req.Event.Price <= 0 {
		return Intent{}, newErr(ErrValidation, "event has no price", nil)
	}
	if req.Count < 1 {
		return Intent{}, newErr(ErrValidation, "count must be at least 1", nil)
	}

	amount := Amount(req.Count, req.Event.Price)
	receipt := s.newReceipt()
	description := fmt.Sprintf("%d ticket purchase for event: %s", req.Count, req.Event.Title)
	log := s.log.With(
		zap.Uint64("user_id", req.UserID),
		zap.Uint64("event_id", req.Event.ID),
		zap.String("receipt", receipt),
	)

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"user_id":  strconv.FormatUint(req.UserID, 10),
			"event_id": strconv.FormatUint(req.Event.ID, 10),
		},
	})
	if err != nil {
		log.Error("provider order not created", zap.Error(err))
		return Intent{}, newErr(ErrUpstream, "could not create payment order", err)
	}

	p := &model.Payment{
		OrderID:     order.ID,
		Amount:      order.Amount,
		AmountPaid:  order.AmountPaid,
		AmountDue:   order.AmountDue,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
		Status:      model.PaymentPending,
		UserID:      req.UserID,
		EventID:     req.Event.ID,
		TicketCount: req.Count,
		Description: description,
	}
	if p.Amount == 0 {
		p.Amount = amount
	}
	if p.Currency == "" {
		p.Currency = s.currency
	}
	if p.Receipt == "" {
		p.Receipt = receipt
	}
	if p.AmountPaid+p.AmountDue != p.Amount {
		p.AmountDue = p.Amount - p.AmountPaid
	}
	if p.Amount != amount {
		log.Warn("provider order amount differs from computed amount",
			zap.Int64("computed", amount), zap.Int64("provider", p.Amount))
	}

	if err := s.payments.Create(ctx, p); err != nil {
		// The provider order exists but nothing local references it.
		log.Error("payment record not persisted; provider order orphaned",
			zap.String("order_id", order.ID), zap.Error(err))
		return Intent{}, newErr(ErrPersistence, "could not record payment", err)
	}

	log.Info("payment intent created", zap.String("order_id", p.OrderID), zap.Int64("amount", p.Amount))
	return Intent{
		ID:          p.OrderID,
		Currency:    p.Currency,
		Amount:      p.Amount,
		Description: description,
	}, nil
}
