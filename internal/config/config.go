// Package config holds the process-wide settings the runner consults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/orchard/internal/resolve"
)

// EnvDefaultTimeout names the environment variable holding the default test
// timeout, in whole seconds.
const EnvDefaultTimeout = "ORCHARD_DEFAULT_TIMEOUT_SECONDS"

// Config is the process-wide configuration.
type Config struct {
	// DefaultTimeout applies to tests with no timeout anywhere in their lineage.
	DefaultTimeout time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{DefaultTimeout: resolve.DefaultTimeout}
}

// FromEnv returns Default overridden by the environment.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	raw, ok := lookup(EnvDefaultTimeout)
	if !ok || strings.TrimSpace(raw) == "" {
		return cfg, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvDefaultTimeout, err)
	}
	if secs <= 0 {
		return cfg, fmt.Errorf("%s: must be positive, got %d", EnvDefaultTimeout, secs)
	}
	cfg.DefaultTimeout = time.Duration(secs) * time.Second
	return cfg, nil
}
