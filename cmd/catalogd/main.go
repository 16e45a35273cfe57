// Package main is the entry point for the catalogd binary.
// It serves the product catalog HTTP API and runs schema migrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog/cmd"
	"catalog/config"
	"catalog/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for catalogd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catalogd",
		Short: "Product catalog service",
		Long: `Product catalog service with audited, soft-deleting persistence.

Configuration is read from the file given by --config and may be
overridden with CATALOG_* environment variables, e.g.
  CATALOG_DATABASE_TYPE=postgres catalogd serve --config config.yaml`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog and audit tables",
		RunE:  runMigrate,
	}
}

func configPath(c *cobra.Command) (string, error) {
	path, err := c.Flags().GetString("config")
	if err != nil {
		return "", fmt.Errorf("failed to get config flag: %w", err)
	}
	return path, nil
}

func runServe(c *cobra.Command, _ []string) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}

	cfg, err := config.LoadAndWatch(path, func(updated *config.Config, err error) {
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", zap.Error(err))
			return
		}
		if err := logger.UpdateLevel(updated.Log.Level); err != nil {
			logger.Warn("Failed to apply log level", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewBuilder(cfg).Build(ctx)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func runMigrate(c *cobra.Command, _ []string) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver == config.DatabaseMemory {
		return fmt.Errorf("database.type is %q; nothing to migrate", cfg.Database.Driver)
	}

	log, err := logger.Init(cfg.Log, cfg.App.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := cmd.OpenDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := cmd.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Migration complete", zap.String("database", cfg.Database.Driver))
	return nil
}
