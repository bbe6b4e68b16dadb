package config

import (
	"strings"
	"time"
)

// Rate limit scopes.  Each scope gets its own bucket family in Redis.
const (
	ScopeBooking = "booking"
	ScopeVerify  = "verify"
)

// RateLimitConfig tunes one Redis token bucket.  Booking creates provider
// orders, so its budget is tighter than payment verification, which a
// checkout page may poll.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

var scopeDefaults = map[string]RateLimitConfig{
	ScopeBooking: {Capacity: 5, RefillTokens: 1, RefillInterval: 12 * time.Second},
	ScopeVerify:  {Capacity: 20, RefillTokens: 1, RefillInterval: 3 * time.Second},
}

// LoadRateLimitConfig reads the shared RATE_LIMIT_* variables and then the
// scope-specific RATE_LIMIT_<SCOPE>_* overrides, e.g.
// RATE_LIMIT_BOOKING_CAPACITY.  Unknown scopes use the verify budget.
func LoadRateLimitConfig(scope string) RateLimitConfig {
	base, ok := scopeDefaults[scope]
	if !ok {
		base = scopeDefaults[ScopeVerify]
	}
	p := "RATE_LIMIT_" + strings.ToUpper(scope) + "_"

	cfg := RateLimitConfig{
		Enabled:     envBool(p+"ENABLED", envBool("RATE_LIMIT_ENABLED", true)),
		KeyStrategy: envStr(p+"KEY_STRATEGY", envStr("RATE_LIMIT_KEY_STRATEGY", "user_route")),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl") + ":" + scope,
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}
	cfg.Capacity = envInt(p+"CAPACITY", envInt("RATE_LIMIT_CAPACITY", base.Capacity))
	cfg.RefillTokens = envInt(p+"REFILL_TOKENS", envInt("RATE_LIMIT_REFILL_TOKENS", base.RefillTokens))
	cfg.RefillInterval = envDur(p+"REFILL_INTERVAL", envDur("RATE_LIMIT_REFILL_INTERVAL", base.RefillInterval))
	cfg.TTL = envDur(p+"TTL", envDur("RATE_LIMIT_TTL", 10*time.Minute))

	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// The bucket must outlive at least a few refills or it resets to full.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
