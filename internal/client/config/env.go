package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is a DTO for environment-variable parsing. Pointer fields
// distinguish "unset" from zero so the overlay only touches variables that
// are actually present.
type envConfig struct {
	BaseURL              *string        `env:"CARGOTRAIL_BASE_URL"`
	ClientID             *string        `env:"CARGOTRAIL_CLIENT_ID"`
	DatabaseDSN          *string        `env:"CARGOTRAIL_DATABASE_DSN"`
	ExpiryMargin         *time.Duration `env:"CARGOTRAIL_EXPIRY_MARGIN"`
	IdleTimeout          *time.Duration `env:"CARGOTRAIL_IDLE_TIMEOUT"`
	ActivityPollInterval *time.Duration `env:"CARGOTRAIL_ACTIVITY_POLL_INTERVAL"`
	LogLevel             *int           `env:"CARGOTRAIL_LOG_LEVEL"`
}

// parseEnv overlays cfg with values from the environment.
func parseEnv(cfg *Config) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if ec.BaseURL != nil {
		cfg.BaseURL = *ec.BaseURL
	}
	if ec.ClientID != nil {
		cfg.ClientID = *ec.ClientID
	}
	if ec.DatabaseDSN != nil {
		cfg.DatabaseDSN = *ec.DatabaseDSN
	}
	if ec.ExpiryMargin != nil {
		cfg.ExpiryMargin = *ec.ExpiryMargin
	}
	if ec.IdleTimeout != nil {
		cfg.IdleTimeout = *ec.IdleTimeout
	}
	if ec.ActivityPollInterval != nil {
		cfg.ActivityPollInterval = *ec.ActivityPollInterval
	}
	if ec.LogLevel != nil {
		cfg.LogLevel = *ec.LogLevel
	}
	return nil
}
