// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every externally supplied setting of the service.
type Config struct {
	DBPath string `env:"AUTH_DB_PATH" envDefault:"jwt_auth.db"`

	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	Issuer        string        `env:"JWT_ISSUER" envDefault:"jwt-cookie-auth"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3000"`

	// RateLimitRedisAddr enables login throttling when non-empty.
	RateLimitRedisAddr     string        `env:"RATE_LIMIT_REDIS_ADDR"`
	RateLimitLoginRequests int           `env:"RATE_LIMIT_LOGIN_REQUESTS" envDefault:"10"`
	RateLimitLoginWindow   time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW" envDefault:"1m"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the token codec relies on.
func (c Config) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must not be empty"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must not be empty"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be positive"))
	}
	if c.RateLimitRedisAddr != "" && (c.RateLimitLoginRequests <= 0 || c.RateLimitLoginWindow <= 0) {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
