// Package config defines the top-level configuration for fadebot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FADEBOT_* environment
// variables.
type Config struct {
	Data     DataConfig     `toml:"data"`
	Kalshi   KalshiConfig   `toml:"kalshi"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Fees     FeesConfig     `toml:"fees"`
	Backtest BacktestConfig `toml:"backtest"`
	Search   SearchConfig   `toml:"search"`
	Stats    StatsConfig    `toml:"stats"`
	Paper    PaperConfig    `toml:"paper"`
	Report   ReportConfig   `toml:"report"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DataConfig selects where candle series come from.
type DataConfig struct {
	// Source is "csv", "postgres", or "s3".
	Source   string   `toml:"source"`
	CSVDir   string   `toml:"csv_dir"`
	S3Prefix string   `toml:"s3_prefix"`
	UseCache bool     `toml:"use_cache"`
	CacheTTL duration `toml:"cache_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// KalshiConfig holds Kalshi exchange API credentials and endpoints.
type KalshiConfig struct {
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	EncryptedKeyPath  string `toml:"encrypted_key_path"`
	KeyPassword       string `toml:"key_password"`
	BaseURL           string `toml:"base_url"`
	WsURL             string `toml:"ws_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// FeesConfig holds the exchange fee schedule.
type FeesConfig struct {
	TakerRate float64 `toml:"taker_rate"`
	MakerRate float64 `toml:"maker_rate"`
}

// BacktestConfig holds the single-candidate backtest parameters. The same
// strategy settings drive paper mode.
type BacktestConfig struct {
	Contracts         int     `toml:"contracts"`
	BandMin           float64 `toml:"band_min"`
	BandMax           float64 `toml:"band_max"`
	MoveThresholdPct  float64 `toml:"move_threshold_pct"`
	HoldMinutes       int     `toml:"hold_minutes"`
	LookbackMinutes   int     `toml:"lookback_minutes"`
	StopLossDollars   float64 `toml:"stop_loss_dollars"`   // 0 disables
	TakeProfitDollars float64 `toml:"take_profit_dollars"` // 0 disables

	// Oracle gating; empty path disables the oracle rule.
	OracleCoeffsPath string  `toml:"oracle_coeffs_path"`
	OracleThreshold  float64 `toml:"oracle_threshold"`
}

// SearchConfig holds the grid-search axes and worker pool size.
type SearchConfig struct {
	BandMins          []float64 `toml:"band_mins"`
	BandMaxs          []float64 `toml:"band_maxs"`
	MoveThresholdsPct []float64 `toml:"move_thresholds_pct"`
	HoldMinutes       []int     `toml:"hold_minutes"`
	LookbackMinutes   int       `toml:"lookback_minutes"`
	Workers           int       `toml:"workers"`
}

// StatsConfig holds the statistical validation parameters.
type StatsConfig struct {
	Alpha               float64 `toml:"alpha"`
	AnnualizationFactor float64 `toml:"annualization_factor"`
	BootstrapIters      int     `toml:"bootstrap_iters"`
	BootstrapSeed       int64   `toml:"bootstrap_seed"`
}

// PaperConfig holds live paper-trading parameters.
type PaperConfig struct {
	Instruments   []string `toml:"instruments"`
	WindowMinutes int      `toml:"window_minutes"`
}

// ReportConfig holds report output parameters.
type ReportConfig struct {
	OutputDir string `toml:"output_dir"`
	ArchiveS3 bool   `toml:"archive_s3"`
	TopN      int    `toml:"top_n"`
	RunID     string `toml:"run_id"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Data: DataConfig{
			Source:   "csv",
			CSVDir:   "./data/candles",
			UseCache: false,
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			WsURL:   "wss://api.elections.kalshi.com/trade-api/ws/v2",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "fadebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "fadebot-data",
			ForcePathStyle: true,
		},
		Fees: FeesConfig{
			TakerRate: 0.07,
			MakerRate: 0.0175,
		},
		Backtest: BacktestConfig{
			Contracts:        100,
			BandMin:          1,
			BandMax:          99,
			MoveThresholdPct: 5,
			HoldMinutes:      3,
			LookbackMinutes:  1,
			OracleThreshold:  0.7,
		},
		Search: SearchConfig{
			BandMins:          []float64{1, 1, 90, 95},
			BandMaxs:          []float64{5, 10, 95, 99},
			MoveThresholdsPct: []float64{15, 20, 25, 30},
			HoldMinutes:       []int{2, 3, 5, 10, 15},
			LookbackMinutes:   1,
			Workers:           8,
		},
		Stats: StatsConfig{
			Alpha:               0.05,
			AnnualizationFactor: 240,
			BootstrapIters:      1000,
			BootstrapSeed:       20260314,
		},
		Paper: PaperConfig{
			WindowMinutes: 120,
		},
		Report: ReportConfig{
			OutputDir: "./reports",
			TopN:      20,
		},
		Mode:     "backtest",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"backtest": true,
	"search":   true,
	"paper":    true,
	"report":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: backtest, search, paper, report)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Data
	switch c.Data.Source {
	case "csv":
		if c.Data.CSVDir == "" {
			errs = append(errs, "data: csv_dir must not be empty for csv source")
		}
	case "postgres", "s3":
	default:
		errs = append(errs, fmt.Sprintf("data: unknown source %q (valid: csv, postgres, s3)", c.Data.Source))
	}

	// Kalshi — needed for paper mode.
	if mode == "paper" {
		if c.Kalshi.ApiKey == "" {
			errs = append(errs, "kalshi: api_key is required for paper mode")
		}
		if c.Kalshi.RsaPrivateKeyPath == "" && c.Kalshi.EncryptedKeyPath == "" {
			errs = append(errs, "kalshi: either rsa_private_key_path or encrypted_key_path must be set for paper mode")
		}
		if c.Kalshi.EncryptedKeyPath != "" && c.Kalshi.KeyPassword == "" {
			errs = append(errs, "kalshi: key_password is required when encrypted_key_path is set")
		}
		if c.Kalshi.WsURL == "" {
			errs = append(errs, "kalshi: ws_url must not be empty for paper mode")
		}
		if len(c.Paper.Instruments) == 0 {
			errs = append(errs, "paper: instruments must not be empty")
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Data.UseCache {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when data.use_cache is set")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.Report.ArchiveS3 || c.Data.Source == "s3" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Fees
	if c.Fees.TakerRate < 0 || c.Fees.TakerRate > 1 {
		errs = append(errs, fmt.Sprintf("fees: taker_rate must be in [0,1], got %g", c.Fees.TakerRate))
	}
	if c.Fees.MakerRate < 0 || c.Fees.MakerRate > 1 {
		errs = append(errs, fmt.Sprintf("fees: maker_rate must be in [0,1], got %g", c.Fees.MakerRate))
	}

	// Backtest / strategy
	if c.Backtest.Contracts < 1 {
		errs = append(errs, "backtest: contracts must be >= 1")
	}
	if c.Backtest.BandMin < 0 || c.Backtest.BandMax > 100 || c.Backtest.BandMin > c.Backtest.BandMax {
		errs = append(errs, fmt.Sprintf("backtest: invalid band [%g, %g]", c.Backtest.BandMin, c.Backtest.BandMax))
	}
	if c.Backtest.MoveThresholdPct < 0 {
		errs = append(errs, "backtest: move_threshold_pct must be >= 0")
	}
	if c.Backtest.HoldMinutes < 1 {
		errs = append(errs, "backtest: hold_minutes must be >= 1")
	}
	if c.Backtest.OracleCoeffsPath != "" &&
		(c.Backtest.OracleThreshold < 0 || c.Backtest.OracleThreshold > 1) {
		errs = append(errs, fmt.Sprintf("backtest: oracle_threshold must be in [0,1], got %g", c.Backtest.OracleThreshold))
	}

	// Search
	if mode == "search" {
		if len(c.Search.BandMins) == 0 || len(c.Search.BandMins) != len(c.Search.BandMaxs) {
			errs = append(errs, "search: band_mins and band_maxs must be non-empty and the same length")
		}
		if len(c.Search.MoveThresholdsPct) == 0 {
			errs = append(errs, "search: move_thresholds_pct must not be empty")
		}
		if len(c.Search.HoldMinutes) == 0 {
			errs = append(errs, "search: hold_minutes must not be empty")
		}
		if c.Search.Workers < 1 {
			errs = append(errs, "search: workers must be >= 1")
		}
	}

	// Stats
	if c.Stats.Alpha <= 0 || c.Stats.Alpha >= 1 {
		errs = append(errs, fmt.Sprintf("stats: alpha must be in (0,1), got %g", c.Stats.Alpha))
	}
	if c.Stats.AnnualizationFactor <= 0 {
		errs = append(errs, "stats: annualization_factor must be > 0")
	}
	if c.Stats.BootstrapIters < 1 {
		errs = append(errs, "stats: bootstrap_iters must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
