package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000/api", c.BaseURL)
	assert.Equal(t, "cargotrail.db", c.DatabaseDSN)
	assert.Equal(t, 30*time.Second, c.ExpiryMargin)
	assert.Equal(t, 30*time.Minute, c.IdleTimeout)
	assert.Equal(t, time.Minute, c.ActivityPollInterval)
}

func TestValidate_OK(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.ClientID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

	require.NoError(t, c.Validate())
}

func TestValidate_MissingClientID(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.Validate()
	require.ErrorIs(t, err, ErrMissingClientID)
}

func TestValidate_ClientIDNotUUID(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.ClientID = "web-app"

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalidClientID)
}

func TestValidate_BadBaseURL(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.ClientID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"

	c.BaseURL = "ftp://somewhere"
	require.Error(t, c.Validate())

	c.BaseURL = "http://"
	require.Error(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	t.Setenv("CARGOTRAIL_CLIENT_ID", "7d444840-9dc0-11d1-b245-5ffdce74fad2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.BaseURL)
	assert.Equal(t, time.Minute, cfg.ActivityPollInterval)
}
