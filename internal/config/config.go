// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string

	// KeyPath is the location of the token encryption key material.
	// RequireKey makes a missing key file fatal instead of falling back
	// to the built-in development key.
	KeyPath    string
	RequireKey bool

	// Sandbox switches the Direct API client to the sandbox endpoint.
	Sandbox bool

	APITimeout     time.Duration
	ReportTimeout  time.Duration
	ReportRetries  int
	ReportInterval time.Duration

	// GatewayURL and ToolsetURL are the registration endpoints announced
	// at startup. Empty means the corresponding handshake is skipped.
	// ServiceToken authenticates the gateway handshake.
	GatewayURL   string
	ToolsetURL   string
	ServiceToken string
}

// Load reads configuration from environment variables and returns a validated Config.
// All variables are optional and carry defaults suitable for local development:
// DIRECTVAULT_LISTEN_ADDR (127.0.0.1:8080), DIRECTVAULT_DB_PATH (directvault.db),
// DIRECTVAULT_KEY_PATH (/etc/directvault/key), DIRECTVAULT_API_TIMEOUT (120s),
// DIRECTVAULT_REPORT_TIMEOUT (30s), DIRECTVAULT_REPORT_RETRIES (5),
// DIRECTVAULT_REPORT_INTERVAL (2s). Set DIRECTVAULT_REQUIRE_KEY=true in
// production so a missing key file aborts startup instead of degrading to
// the development key.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "directvault.db",
		KeyPath:        "/etc/directvault/key",
		APITimeout:     120 * time.Second,
		ReportTimeout:  30 * time.Second,
		ReportRetries:  5,
		ReportInterval: 2 * time.Second,
	}

	if v, ok := os.LookupEnv("DIRECTVAULT_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("DIRECTVAULT_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("DIRECTVAULT_KEY_PATH"); ok {
		cfg.KeyPath = v
	}

	var err error
	if cfg.RequireKey, err = lookupBool("DIRECTVAULT_REQUIRE_KEY"); err != nil {
		return nil, err
	}
	if cfg.Sandbox, err = lookupBool("DIRECTVAULT_SANDBOX"); err != nil {
		return nil, err
	}

	if cfg.APITimeout, err = lookupDuration("DIRECTVAULT_API_TIMEOUT", cfg.APITimeout); err != nil {
		return nil, err
	}
	if cfg.ReportTimeout, err = lookupDuration("DIRECTVAULT_REPORT_TIMEOUT", cfg.ReportTimeout); err != nil {
		return nil, err
	}
	if cfg.ReportInterval, err = lookupDuration("DIRECTVAULT_REPORT_INTERVAL", cfg.ReportInterval); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("DIRECTVAULT_REPORT_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("DIRECTVAULT_REPORT_RETRIES has invalid value %q: %w", v, err)
		}
		if n < 0 {
			return nil, errors.New("DIRECTVAULT_REPORT_RETRIES must be >= 0")
		}
		cfg.ReportRetries = n
	}

	cfg.GatewayURL = os.Getenv("DIRECTVAULT_GATEWAY_URL")
	cfg.ToolsetURL = os.Getenv("DIRECTVAULT_TOOLSET_URL")
	cfg.ServiceToken = os.Getenv("DIRECTVAULT_SERVICE_TOKEN")

	return cfg, nil
}

// ReportBudget is the worst-case wall clock of one report polling cycle:
// the initial submission plus every allowed re-poll, each bounded by
// ReportTimeout, with an interval wait before each re-poll. Anything
// bounding a whole command (server write timeouts, stream deadlines) must
// allow at least this much.
func (c *Config) ReportBudget() time.Duration {
	attempts := time.Duration(c.ReportRetries + 1)
	return attempts*c.ReportTimeout + time.Duration(c.ReportRetries)*c.ReportInterval
}

func lookupDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

func lookupBool(key string) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s has invalid value %q: %w", key, v, err)
	}
	return parsed, nil
}
