package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/catalog/httpsource"
	"github.com/utafrali/storefront/internal/catalog/postgres"
	"github.com/utafrali/storefront/internal/catalog/seed"
	"github.com/utafrali/storefront/internal/catalog/sqlite"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "storefront"

// newSource builds the catalog source named by cfg.CatalogSource. The
// returned func releases its connections.
func newSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.Source, func() error, error) {
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	switch cfg.CatalogSource {
	case config.SourceHTTP:
		client := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.ProductAPI), cfg.Breaker, logger)
		return httpsource.New(cfg.ProductAPIURL, client), func() error { return nil }, nil

	case config.SourcePostgres:
		pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to catalog database: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		return postgres.New(pool), func() error { pool.Close(); return nil }, nil

	case config.SourceSQLite:
		src, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		return src, src.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

// Migrate applies the catalog schema migrations to PostgreSQL.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect to catalog database: %w", err)
	}
	defer pool.Close()

	return database.RunMigrations(ctx, pool, postgres.Migrations(), logger)
}

// Seed writes a generated demo catalog of n products to the SQLite file at
// cfg.SQLitePath, creating it when missing.
func Seed(ctx context.Context, cfg *config.Config, n int, rngSeed uint64, logger *slog.Logger) error {
	if n < 1 {
		return fmt.Errorf("product count must be positive, got %d", n)
	}
	src, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer src.Close()

	return seed.Write(ctx, src, seed.Generate(n, rngSeed), logger)
}
