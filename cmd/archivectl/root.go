package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"heritage-archive-be/internal/bootstrap"
	"heritage-archive-be/internal/config"
	"heritage-archive-be/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var verbose bool

// newRootCmd returns the archivectl command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "archivectl",
		Short:         "Operate the heritage archive from the command line",
		Long:          "archivectl runs searches, streams and ingests against the same container the REST server uses.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every SQL statement")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newMigrateCmd())

	return rootCmd
}

// withContainer builds the container, runs fn under an interrupt-aware context and tears down.
func withContainer(fn func(ctx context.Context, c *bootstrap.Container) error) error {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.DSN(), verbose)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	container, err := bootstrap.NewContainer(db, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	return fn(ctx, container)
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.NewGormDBFromDSN(config.Load().Database.DSN(), verbose)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
