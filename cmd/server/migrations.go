package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, sub := range []struct {
		command string
		short   string
	}{
		{migrations.CommandUp, "Apply all pending migrations"},
		{migrations.CommandDown, "Roll back the most recent migration"},
		{migrations.CommandStatus, "Show the state of every migration"},
		{migrations.CommandVersion, "Print the current schema version"},
	} {
		command := sub.command
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := loadAppConfig()
				if err != nil {
					return err
				}
				return runMigrations(cmd.Context(), cfg.Database, command, logger)
			},
		})
	}
	return cmd
}

// runMigrations executes one migration command against the configured
// database.
func runMigrations(ctx context.Context, cfg config.DatabaseConfig, command string, logger *slog.Logger) error {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	m, err := newMigrator(cfg.Driver, db, logger)
	if err != nil {
		return err
	}
	if err := m.Run(ctx, command); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
