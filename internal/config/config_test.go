package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "data", cfg.Store.Path)
	assert.Equal(t, 1000, cfg.Ledger.HistoryLimit)
	assert.Equal(t, 10, cfg.Ledger.RecentLimit)
	assert.InDelta(t, 1.0, cfg.Gemini.RequestsPerSecond, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
  path: lmscan.db
log:
  level: debug
  format: console
server:
  port: 9090
ledger:
  history_limit: 200
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "lmscan.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 200, cfg.Ledger.HistoryLimit)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Ledger.RecentLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LMSCAN_STORE_DRIVER", "file")
	t.Setenv("LMSCAN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("LMSCAN_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "file"
	cfg.Store.Path = "data"
	cfg.Ledger.HistoryLimit = 1000
	cfg.Ledger.RecentLimit = 10
	cfg.Gemini.RequestsPerSecond = 1.0
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateScan_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("scan"))
}

func TestValidateBadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be file or sqlite")
}

func TestValidateMissingPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Path = ""

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")
}

func TestValidateLedgerBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Ledger.HistoryLimit = 0

	err := cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.history_limit must be >= 1")

	cfg.Ledger.HistoryLimit = 1000
	cfg.Ledger.RecentLimit = 0
	err = cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.recent_limit must be >= 1")
}

func TestValidateGeminiRate(t *testing.T) {
	cfg := validDefaults()
	cfg.Gemini.Key = "key"
	cfg.Gemini.RequestsPerSecond = 0

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gemini.requests_per_second must be > 0")

	// Without a key the collaborator is disabled and the rate is irrelevant.
	cfg.Gemini.Key = ""
	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidateServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
