// Package gateway talks to the payment provider (Razorpay): it creates
// orders, fetches payments and authenticates webhook deliveries.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Provider-side payment statuses.
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusFailed     = "failed"
	StatusRefunded   = "refunded"
)

// OrderRequest is what the intent service asks the provider for.
type OrderRequest struct {
	Amount   int64 // minor units
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order mirrors the provider's order resource.
type Order struct {
	ID         string
	Amount     int64
	AmountPaid int64
	AmountDue  int64
	Currency   string
	Receipt    string
	Status     string
}

// Payment mirrors the provider's payment resource.
type Payment struct {
	ID      string
	OrderID string
	Amount  int64
	Status  string
}

// ErrMalformedResponse is returned when a provider response lacks a field
// the service relies on.
var ErrMalformedResponse = errors.New("gateway: malformed provider response")

// Client is the Razorpay implementation used in production.
type Client struct {
	rzp *razorpay.Client
}

// NewClient builds a Razorpay client from API credentials.
func NewClient(keyID, keySecret string) *Client {
	return &Client{rzp: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder creates an immediate-capture order (payment_capture=1).
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}
	body, err := c.rzp.Order.Create(data, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay: create order: %w", err)
	}
	return orderFromMap(body)
}

// FetchPayment loads a payment by its provider id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}
	body, err := c.rzp.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return Payment{}, fmt.Errorf("razorpay: fetch payment: %w", err)
	}
	return paymentFromMap(body)
}

func orderFromMap(m map[string]interface{}) (Order, error) {
	o := Order{
		ID:         str(m["id"]),
		Amount:     num(m["amount"]),
		AmountPaid: num(m["amount_paid"]),
		AmountDue:  num(m["amount_due"]),
		Currency:   str(m["currency"]),
		Receipt:    str(m["receipt"]),
		Status:     str(m["status"]),
	}
	if o.ID == "" || o.Amount <= 0 {
		return Order{}, ErrMalformedResponse
	}
	return o, nil
}

func paymentFromMap(m map[string]interface{}) (Payment, error) {
	p := Payment{
		ID:      str(m["id"]),
		OrderID: str(m["order_id"]),
		Amount:  num(m["amount"]),
		Status:  str(m["status"]),
	}
	if p.ID == "" || p.Status == "" {
		return Payment{}, ErrMalformedResponse
	}
	return p, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// num converts the numeric shapes a decoded JSON map can hold.
func num(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	}
	return 0
}
