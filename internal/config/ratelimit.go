package config

import "time"

// RateLimitConfig configures the Redis token bucket applied to /api routes.
// By default one bucket is kept per client IP and owner scope.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" env-default:"120"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" env-default:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" env-default:"1s"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL" env-default:"10m"`
	// KeyStrategy is one of ip, user, route, ip_user, ip_route, user_route
	// or anything else for all three.
	KeyStrategy string `env:"RATE_LIMIT_KEY_STRATEGY" env-default:"ip_user"`
	Prefix      string `env:"RATE_LIMIT_PREFIX" env-default:"shop:rl"`
	Debug       bool   `env:"RATE_LIMIT_DEBUG" env-default:"false"`
}

// normalize clamps values to usable minimums.  The bucket key must outlive
// a few refill intervals or an idle client would get a fresh full bucket.
func (c *RateLimitConfig) normalize() {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
}
