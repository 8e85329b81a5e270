package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	RedisURL         string `env:"REDIS_URL,required"`
	ZoomAccountID    string `env:"ZOOM_ACCOUNT_ID"`
	ZoomClientID     string `env:"ZOOM_CLIENT_ID"`
	ZoomClientSecret string `env:"ZOOM_CLIENT_SECRET"`
	ZoomBaseURL      string `env:"ZOOM_BASE_URL" envDefault:"https://api.zoom.us/v2"`
	JoinTokenTTLMins int    `env:"JOIN_TOKEN_TTL_MINUTES" envDefault:"60"`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) JoinTokenTTL() time.Duration {
	return time.Duration(c.JoinTokenTTLMins) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.JoinTokenTTLMins <= 0 {
		return fmt.Errorf("JOIN_TOKEN_TTL_MINUTES must be positive")
	}

	if isProduction {
		if c.ZoomAccountID == "" || c.ZoomClientID == "" || c.ZoomClientSecret == "" {
			return fmt.Errorf("ZOOM_ACCOUNT_ID, ZOOM_CLIENT_ID and ZOOM_CLIENT_SECRET are required in production")
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
