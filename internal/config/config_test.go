package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadPaymentConfigDefaults(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "key-secret")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "hook-secret")

	cfg := LoadPaymentConfig()

	assert.Equal(t, "rzp_test_key", cfg.KeyID)
	assert.Equal(t, "hook-secret", cfg.WebhookSecret)
	assert.Equal(t, "INR", cfg.Currency)
	assert.True(t, cfg.VerifyWithProvider)
	assert.False(t, cfg.RejectBadSignature)
	assert.Equal(t, 10, cfg.MaxTicketsPerBooking)
}

func TestLoadPaymentConfigOverrides(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "k")
	t.Setenv("RAZORPAY_KEY_SECRET", "s")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "w")
	t.Setenv("PAYMENT_CURRENCY", "inr")
	t.Setenv("PAYMENT_VERIFY_WITH_PROVIDER", "off")
	t.Setenv("WEBHOOK_REJECT_BAD_SIGNATURE", "yes")
	t.Setenv("MAX_TICKETS_PER_BOOKING", "4")

	cfg := LoadPaymentConfig()

	assert.Equal(t, "INR", cfg.Currency)
	assert.False(t, cfg.VerifyWithProvider)
	assert.True(t, cfg.RejectBadSignature)
	assert.Equal(t, 4, cfg.MaxTicketsPerBooking)
}

func TestLoadRateLimitConfigClampsTTL(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")

	cfg := LoadRateLimitConfig(ScopeVerify)

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, "user_route", cfg.KeyStrategy)
	assert.Equal(t, "rl:verify", cfg.Prefix)
}

func TestLoadRateLimitConfigScopes(t *testing.T) {
	t.Setenv("RATE_LIMIT_BOOKING_CAPACITY", "2")

	booking := LoadRateLimitConfig(ScopeBooking)
	verify := LoadRateLimitConfig(ScopeVerify)

	assert.Equal(t, 2, booking.Capacity)
	assert.Equal(t, 12*time.Second, booking.RefillInterval)
	assert.Equal(t, 20, verify.Capacity)
	assert.NotEqual(t, booking.Prefix, verify.Prefix)
}

func TestLoadRedisConfigPrefersHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "on")

	cfg := LoadRedisConfig()

	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.True(t, cfg.TLS)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
}

func TestLoadQueueConfigFallsBackToAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	cfg := LoadQueueConfig()

	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.URL)
	assert.Equal(t, "logs", cfg.LogDir)
}

func TestParseMethods(t *testing.T) {
	m := parseMethods(" get, head ,")
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, m)
}
