package config

import (
	"flag"
	"os"
	"time"

	"github.com/ndemidov/cargotrail/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   base URL of the CargoTrail API
//	-i string   OAuth client id
//	-d string   local SQLite database path
//	-m int      expiry safety margin, seconds
//	-t int      inactivity timeout, minutes
//	-p int      activity poll interval, seconds
//
// The function filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-i", "-d", "-m", "-t", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "base URL of the CargoTrail API")
	fs.StringVar(&cfg.ClientID, "i", cfg.ClientID, "OAuth client id")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")

	expiryMargin := fs.Int("m", int(cfg.ExpiryMargin.Seconds()), "expiry safety margin (in seconds)")
	idleTimeout := fs.Int("t", int(cfg.IdleTimeout.Minutes()), "inactivity timeout (in minutes)")
	pollInterval := fs.Int("p", int(cfg.ActivityPollInterval.Seconds()), "activity poll interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ExpiryMargin = time.Duration(*expiryMargin) * time.Second
	cfg.IdleTimeout = time.Duration(*idleTimeout) * time.Minute
	cfg.ActivityPollInterval = time.Duration(*pollInterval) * time.Second
}
