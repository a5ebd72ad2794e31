package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FADEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FADEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Data ──
	setStr(&cfg.Data.Source, "FADEBOT_DATA_SOURCE")
	setStr(&cfg.Data.CSVDir, "FADEBOT_DATA_CSV_DIR")
	setStr(&cfg.Data.S3Prefix, "FADEBOT_DATA_S3_PREFIX")
	setBool(&cfg.Data.UseCache, "FADEBOT_DATA_USE_CACHE")
	setDuration(&cfg.Data.CacheTTL, "FADEBOT_DATA_CACHE_TTL")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.ApiKey, "FADEBOT_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "FADEBOT_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.EncryptedKeyPath, "FADEBOT_KALSHI_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Kalshi.KeyPassword, "FADEBOT_KALSHI_KEY_PASSWORD")
	setStr(&cfg.Kalshi.BaseURL, "FADEBOT_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.WsURL, "FADEBOT_KALSHI_WS_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "FADEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FADEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FADEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FADEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FADEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FADEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FADEBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FADEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FADEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FADEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FADEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FADEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FADEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FADEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FADEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FADEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "FADEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FADEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "FADEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FADEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FADEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FADEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FADEBOT_S3_FORCE_PATH_STYLE")

	// ── Fees ──
	setFloat64(&cfg.Fees.TakerRate, "FADEBOT_FEES_TAKER_RATE")
	setFloat64(&cfg.Fees.MakerRate, "FADEBOT_FEES_MAKER_RATE")

	// ── Backtest ──
	setInt(&cfg.Backtest.Contracts, "FADEBOT_BACKTEST_CONTRACTS")
	setFloat64(&cfg.Backtest.BandMin, "FADEBOT_BACKTEST_BAND_MIN")
	setFloat64(&cfg.Backtest.BandMax, "FADEBOT_BACKTEST_BAND_MAX")
	setFloat64(&cfg.Backtest.MoveThresholdPct, "FADEBOT_BACKTEST_MOVE_THRESHOLD_PCT")
	setInt(&cfg.Backtest.HoldMinutes, "FADEBOT_BACKTEST_HOLD_MINUTES")
	setInt(&cfg.Backtest.LookbackMinutes, "FADEBOT_BACKTEST_LOOKBACK_MINUTES")
	setFloat64(&cfg.Backtest.StopLossDollars, "FADEBOT_BACKTEST_STOP_LOSS_DOLLARS")
	setFloat64(&cfg.Backtest.TakeProfitDollars, "FADEBOT_BACKTEST_TAKE_PROFIT_DOLLARS")
	setStr(&cfg.Backtest.OracleCoeffsPath, "FADEBOT_BACKTEST_ORACLE_COEFFS_PATH")
	setFloat64(&cfg.Backtest.OracleThreshold, "FADEBOT_BACKTEST_ORACLE_THRESHOLD")

	// ── Search ──
	setInt(&cfg.Search.Workers, "FADEBOT_SEARCH_WORKERS")
	setInt(&cfg.Search.LookbackMinutes, "FADEBOT_SEARCH_LOOKBACK_MINUTES")

	// ── Stats ──
	setFloat64(&cfg.Stats.Alpha, "FADEBOT_STATS_ALPHA")
	setFloat64(&cfg.Stats.AnnualizationFactor, "FADEBOT_STATS_ANNUALIZATION_FACTOR")
	setInt(&cfg.Stats.BootstrapIters, "FADEBOT_STATS_BOOTSTRAP_ITERS")
	setInt64(&cfg.Stats.BootstrapSeed, "FADEBOT_STATS_BOOTSTRAP_SEED")

	// ── Paper ──
	setStringSlice(&cfg.Paper.Instruments, "FADEBOT_PAPER_INSTRUMENTS")
	setInt(&cfg.Paper.WindowMinutes, "FADEBOT_PAPER_WINDOW_MINUTES")

	// ── Report ──
	setStr(&cfg.Report.OutputDir, "FADEBOT_REPORT_OUTPUT_DIR")
	setBool(&cfg.Report.ArchiveS3, "FADEBOT_REPORT_ARCHIVE_S3")
	setInt(&cfg.Report.TopN, "FADEBOT_REPORT_TOP_N")
	setStr(&cfg.Report.RunID, "FADEBOT_REPORT_RUN_ID")

	// ── Top-level ──
	setStr(&cfg.Mode, "FADEBOT_MODE")
	setStr(&cfg.LogLevel, "FADEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
