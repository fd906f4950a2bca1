package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every DIRECTVAULT_ env var that Load() reads.
var allConfigKeys = []string{
	"DIRECTVAULT_LISTEN_ADDR",
	"DIRECTVAULT_DB_PATH",
	"DIRECTVAULT_KEY_PATH",
	"DIRECTVAULT_REQUIRE_KEY",
	"DIRECTVAULT_SANDBOX",
	"DIRECTVAULT_API_TIMEOUT",
	"DIRECTVAULT_REPORT_TIMEOUT",
	"DIRECTVAULT_REPORT_RETRIES",
	"DIRECTVAULT_REPORT_INTERVAL",
	"DIRECTVAULT_GATEWAY_URL",
	"DIRECTVAULT_TOOLSET_URL",
	"DIRECTVAULT_SERVICE_TOKEN",
}

// isolateConfigEnv saves and unsets all DIRECTVAULT_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "directvault.db", cfg.DBPath)
	assert.Equal(t, "/etc/directvault/key", cfg.KeyPath)
	assert.False(t, cfg.RequireKey)
	assert.False(t, cfg.Sandbox)
	assert.Equal(t, 120*time.Second, cfg.APITimeout)
	assert.Equal(t, 30*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 5, cfg.ReportRetries)
	assert.Equal(t, 2*time.Second, cfg.ReportInterval)
	assert.Empty(t, cfg.GatewayURL)
	assert.Empty(t, cfg.ToolsetURL)
}

func TestLoad_Overrides(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DIRECTVAULT_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("DIRECTVAULT_DB_PATH", "/tmp/vault.db")
	t.Setenv("DIRECTVAULT_KEY_PATH", "/run/secrets/key")
	t.Setenv("DIRECTVAULT_REQUIRE_KEY", "true")
	t.Setenv("DIRECTVAULT_SANDBOX", "true")
	t.Setenv("DIRECTVAULT_API_TIMEOUT", "45s")
	t.Setenv("DIRECTVAULT_REPORT_TIMEOUT", "10s")
	t.Setenv("DIRECTVAULT_REPORT_RETRIES", "8")
	t.Setenv("DIRECTVAULT_REPORT_INTERVAL", "500ms")
	t.Setenv("DIRECTVAULT_GATEWAY_URL", "http://gateway:8000")
	t.Setenv("DIRECTVAULT_TOOLSET_URL", "http://toolset:8000")
	t.Setenv("DIRECTVAULT_SERVICE_TOKEN", "svc-token")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/vault.db", cfg.DBPath)
	assert.Equal(t, "/run/secrets/key", cfg.KeyPath)
	assert.True(t, cfg.RequireKey)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 45*time.Second, cfg.APITimeout)
	assert.Equal(t, 10*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 8, cfg.ReportRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.ReportInterval)
	assert.Equal(t, "http://gateway:8000", cfg.GatewayURL)
	assert.Equal(t, "http://toolset:8000", cfg.ToolsetURL)
	assert.Equal(t, "svc-token", cfg.ServiceToken)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DIRECTVAULT_API_TIMEOUT", "soon")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTVAULT_API_TIMEOUT")
}

func TestLoad_InvalidRetries(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DIRECTVAULT_REPORT_RETRIES", "-1")

	_, err := Load()

	require.Error(t, err)
}

func TestLoad_InvalidBool(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DIRECTVAULT_SANDBOX", "maybe")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTVAULT_SANDBOX")
}

func TestReportBudget(t *testing.T) {
	cfg := &Config{
		ReportTimeout:  30 * time.Second,
		ReportRetries:  5,
		ReportInterval: 2 * time.Second,
	}

	// Six bounded attempts plus five interval waits.
	assert.Equal(t, 190*time.Second, cfg.ReportBudget())
}

func TestReportBudget_NoRetries(t *testing.T) {
	cfg := &Config{
		ReportTimeout:  30 * time.Second,
		ReportRetries:  0,
		ReportInterval: 2 * time.Second,
	}

	// Only the initial submission; no waits.
	assert.Equal(t, 30*time.Second, cfg.ReportBudget())
}
