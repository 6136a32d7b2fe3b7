// Package main implements the entry point for the Cardsmith server, which
// turns a user's study notes into question/answer flashcards using a hosted
// question-answering model and stores them per user.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the binary without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "cardsmith",
		Short:         "Generate flashcards from study notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd(), newGenerateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadAppConfig()
			if err != nil {
				return err
			}

			db, err := openDatabase(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, logger, db, nil)
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
}
