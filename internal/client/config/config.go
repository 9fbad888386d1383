// Package config handles configuration for the CargoTrail CLI, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Config holds runtime settings for the CargoTrail CLI.
//
// Fields:
//   - BaseURL: base URL of the CargoTrail REST API.
//   - ClientID: OAuth client id sent with every token exchange.
//   - DatabaseDSN: path of the local SQLite database.
//   - ExpiryMargin: how long before access-token expiry a refresh is forced.
//   - IdleTimeout: inactivity threshold after which the session is closed.
//   - ActivityPollInterval: how often the inactivity monitor checks.
//
// Margin, threshold, and interval are deliberately configurable; there is no
// universally right value for them.
type Config struct {
	BaseURL              string
	ClientID             string
	DatabaseDSN          string
	ExpiryMargin         time.Duration
	IdleTimeout          time.Duration
	ActivityPollInterval time.Duration
	LogLevel             int
}

var (
	ErrMissingClientID = errors.New("client id is not set")
	ErrInvalidClientID = errors.New("client id is not a valid UUID")
)

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8000/api"
	c.ClientID = ""
	c.DatabaseDSN = "cargotrail.db"
	c.ExpiryMargin = 30 * time.Second
	c.IdleTimeout = 30 * time.Minute
	c.ActivityPollInterval = time.Minute
	c.LogLevel = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, environment variables, and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base url %q has no host", c.BaseURL)
	}
	if c.ClientID == "" {
		return ErrMissingClientID
	}
	if _, err := uuid.Parse(c.ClientID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidClientID, c.ClientID)
	}
	return nil
}
