package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                    int    `env:"PORT" envDefault:"8080"`
	DatabaseURL             string `env:"DATABASE_URL,required"`
	RedisURL                string `env:"REDIS_URL,required"`
	GatewayWebhookSecret    string `env:"GATEWAY_WEBHOOK_SECRET"`
	OperatorTokenHash       string `env:"OPERATOR_TOKEN_HASH"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	TrackingRateLimitPerMin int    `env:"TRACKING_RATE_LIMIT_PER_MIN" envDefault:"120"`
	PageViewDedupEnabled    bool   `env:"PAGE_VIEW_DEDUP_ENABLED" envDefault:"false"`
	WebhookDedupTTLSeconds  int    `env:"WEBHOOK_DEDUP_TTL_SECONDS" envDefault:"86400"`
	ImportMaxBytes          int64  `env:"IMPORT_MAX_BYTES" envDefault:"10485760"`
}

func (c *Config) WebhookDedupTTL() time.Duration {
	return time.Duration(c.WebhookDedupTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.OperatorTokenHash != "" {
		if !strings.HasPrefix(c.OperatorTokenHash, "$2a$") &&
			!strings.HasPrefix(c.OperatorTokenHash, "$2b$") &&
			!strings.HasPrefix(c.OperatorTokenHash, "$2y$") {
			return fmt.Errorf("OPERATOR_TOKEN_HASH must be a bcrypt hash (generate with: go run scripts/hash-token.go <token>)")
		}
	}

	if c.TrackingRateLimitPerMin < 0 {
		return fmt.Errorf("TRACKING_RATE_LIMIT_PER_MIN must not be negative")
	}

	if isProduction {
		if c.OperatorTokenHash == "" {
			return fmt.Errorf("OPERATOR_TOKEN_HASH is required in production")
		}
		if c.GatewayWebhookSecret == "" {
			log.Warn().Msg("GATEWAY_WEBHOOK_SECRET is empty in production: webhook signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
