package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ndemidov/cargotrail/internal/flagx"
	"github.com/ndemidov/cargotrail/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be given as strings ("30s") or as integer nanoseconds (timex.Duration).
type JsonConfig struct {
	BaseURL              string         `json:"base_url"`
	ClientID             string         `json:"client_id"`
	DatabaseDSN          string         `json:"database_dsn"`
	ExpiryMargin         timex.Duration `json:"expiry_margin"`
	IdleTimeout          timex.Duration `json:"idle_timeout"`
	ActivityPollInterval timex.Duration `json:"activity_poll_interval"`
	LogLevel             *int           `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. With no such flag the function is a no-op. Only fields
// present in the file override the current values. Panics on read or
// unmarshal errors; a broken config file is not something to start with.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.ClientID != "" {
		cfg.ClientID = jc.ClientID
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.ExpiryMargin.Duration != 0 {
		cfg.ExpiryMargin = time.Duration(jc.ExpiryMargin.Duration)
	}
	if jc.IdleTimeout.Duration != 0 {
		cfg.IdleTimeout = time.Duration(jc.IdleTimeout.Duration)
	}
	if jc.ActivityPollInterval.Duration != 0 {
		cfg.ActivityPollInterval = time.Duration(jc.ActivityPollInterval.Duration)
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
