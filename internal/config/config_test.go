package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "nope"
	cfg.LogLevel = "loud"
	cfg.Fees.TakerRate = 2
	cfg.Backtest.Contracts = 0
	cfg.Stats.Alpha = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown mode")
	assert.Contains(t, msg, "unknown log_level")
	assert.Contains(t, msg, "taker_rate")
	assert.Contains(t, msg, "contracts")
	assert.Contains(t, msg, "alpha")
}

func TestValidatePaperMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "paper"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kalshi: api_key")
	assert.Contains(t, err.Error(), "paper: instruments")

	cfg.Kalshi.ApiKey = "key-id"
	cfg.Kalshi.RsaPrivateKeyPath = "/keys/kalshi.pem"
	cfg.Paper.Instruments = []string{"KXNBA-GAME1"}
	assert.NoError(t, cfg.Validate())
}

func TestValidateSearchMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "search"
	assert.NoError(t, cfg.Validate())

	cfg.Search.BandMaxs = cfg.Search.BandMaxs[:1]
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "band_mins and band_maxs")
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "search"
log_level = "debug"

[backtest]
contracts = 250

[fees]
taker_rate = 0.05
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FADEBOT_MODE", "backtest")
	t.Setenv("FADEBOT_BACKTEST_HOLD_MINUTES", "7")
	t.Setenv("FADEBOT_PAPER_INSTRUMENTS", "a, b ,c")

	cfg, err := Load(path)
	require.NoError(t, err)

	// env wins over file, file wins over defaults
	assert.Equal(t, "backtest", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.Backtest.Contracts)
	assert.Equal(t, 0.05, cfg.Fees.TakerRate)
	assert.Equal(t, 7, cfg.Backtest.HoldMinutes)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Paper.Instruments)
	// untouched defaults survive
	assert.Equal(t, 0.0175, cfg.Fees.MakerRate)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Kalshi.ApiKey = "secret-key"
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "s3-secret"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Kalshi.ApiKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	// original untouched
	assert.Equal(t, "secret-key", cfg.Kalshi.ApiKey)
	// empty secrets stay empty
	assert.Equal(t, "", red.Redis.Password)
}
