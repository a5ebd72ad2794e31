package app

import (
	"context"
	"fmt"

	s3blob "github.com/alanyoungcy/fadebot/internal/blob/s3"
	"github.com/alanyoungcy/fadebot/internal/cache/redis"
	"github.com/alanyoungcy/fadebot/internal/config"
	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	CandleStore   domain.CandleStore
	TradeLogStore domain.TradeLogStore
	MetricsStore  domain.MetricsStore
	RunStore      domain.RunStore

	// Caches
	PriceCache  domain.PriceCache
	SeriesCache domain.SeriesCache

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.ResultArchiver
}

// needsRedis returns true when the series/price cache layer is enabled.
func needsRedis(cfg *config.Config) bool {
	return cfg.Data.UseCache
}

// needsS3 returns true when object storage is read or written.
func needsS3(cfg *config.Config) bool {
	return cfg.Report.ArchiveS3 || cfg.Data.Source == "s3"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (every mode persists runs, trades, and metrics) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.CandleStore = postgres.NewCandleStore(pool)
	deps.TradeLogStore = postgres.NewTradeLogStore(pool)
	deps.MetricsStore = postgres.NewMetricsStore(pool)
	deps.RunStore = postgres.NewRunStore(pool)

	// --- Redis (series/price cache, optional) ---
	if needsRedis(cfg) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
		deps.SeriesCache = redis.NewSeriesCache(redisClient, cfg.Data.CacheTTL.Duration)
	}

	// --- S3 blob storage (series source and/or run archive) ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter)
	}

	return deps, cleanup, nil
}
