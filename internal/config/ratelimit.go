package config

import "time"

// RateLimitConfig configures the Redis token bucket placed in front of the
// login and registration forms.
type RateLimitConfig struct {
    Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
    Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`
    RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" envDefault:"1"`
    RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"`
    TTL            time.Duration `env:"RATE_LIMIT_TTL" envDefault:"10m"`
    KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY" envDefault:"ip_route"`
    Prefix         string        `env:"RATE_LIMIT_PREFIX" envDefault:"rl"`
    Debug          bool          `env:"RATE_LIMIT_DEBUG" envDefault:"false"`
}

// normalize clamps values so the limiter script never sees zero capacity or
// a TTL shorter than a few refill intervals.
func (rl *RateLimitConfig) normalize() {
    if rl.Capacity < 1 { rl.Capacity = 1 }
    if rl.RefillTokens < 1 { rl.RefillTokens = 1 }
    if rl.RefillInterval <= 0 { rl.RefillInterval = time.Second }
    minTTL := 5 * rl.RefillInterval
    if rl.TTL < minTTL { rl.TTL = minTTL }
}
