package config

import "strings"

// PaymentConfig carries the payment provider credentials and the knobs of
// the reconciliation engine.  It is built once at startup and passed by
// value into the gateway client, the intent service and the reconciler.
type PaymentConfig struct {
	KeyID         string // Razorpay key id
	KeySecret     string // Razorpay key secret
	WebhookSecret string // shared secret for X-Razorpay-Signature
	Currency      string // ISO currency for every order (INR)

	// VerifyWithProvider makes the client verify path fetch the payment
	// from the provider before trusting a "captured" claim.
	VerifyWithProvider bool
	// RejectBadSignature drops webhook deliveries with a mismatched
	// signature instead of moving the payment to failed.
	RejectBadSignature bool

	MaxTicketsPerBooking int
}

// LoadPaymentConfig reads RAZORPAY_* and PAYMENT_* variables.  The three
// provider secrets are required.
func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		KeyID:                must("RAZORPAY_KEY_ID"),
		KeySecret:            must("RAZORPAY_KEY_SECRET"),
		WebhookSecret:        must("RAZORPAY_WEBHOOK_SECRET"),
		Currency:             strings.ToUpper(envStr("PAYMENT_CURRENCY", "INR")),
		VerifyWithProvider:   envBool("PAYMENT_VERIFY_WITH_PROVIDER", true),
		RejectBadSignature:   envBool("WEBHOOK_REJECT_BAD_SIGNATURE", false),
		MaxTicketsPerBooking: envInt("MAX_TICKETS_PER_BOOKING", 10),
	}
}
