package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/catalog/seed"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/logger"
)

const serviceName = "storefront"

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront session service: carts and catalog browsing state",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the catalog schema migrations to PostgreSQL",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the SQLite catalog with generated demo products",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Int("products", seed.DefaultProducts, "number of products to generate")
	seedCmd.Flags().Uint64("seed", 1, "random seed; equal seeds produce equal catalogs")
	seedCmd.Flags().String("path", "", "SQLite file to write (defaults to SQLITE_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := execute(context.Background(), os.Args[1:]...); err != nil {
		slog.Error("storefront failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(serviceName, cfg.LogLevel)
	log.Info("starting storefront service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("catalog_source", cfg.CatalogSource),
	)

	// Create the application with all dependencies wired.
	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		return err
	}

	log.Info("storefront service stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(serviceName, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Migrate(ctx, cfg, log); err != nil {
		return err
	}
	log.Info("catalog migrations applied")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	n, _ := flags.GetInt("products")
	rngSeed, _ := flags.GetUint64("seed")
	path, _ := flags.GetString("path")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if path != "" {
		cfg.SQLitePath = path
	}
	log := logger.New(serviceName, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return app.Seed(ctx, cfg, n, rngSeed, log)
}

func execute(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
