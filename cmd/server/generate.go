package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/cardsmith/internal/generation"
	"github.com/phrazzld/cardsmith/internal/platform/telemetry"
	"github.com/spf13/cobra"
)

// newGenerateCmd runs the pipeline once against the configured provider and
// prints the batch as JSON. Nothing is persisted.
func newGenerateCmd() *cobra.Command {
	var (
		file  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from a notes file without saving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadAppConfig()
			if err != nil {
				return err
			}

			notes, err := readNotes(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			providers, err := telemetry.NewProviders(ctx, cfg.Telemetry, logger)
			if err != nil {
				return err
			}
			defer func() { _ = providers.Shutdown(context.WithoutCancel(ctx)) }()
			tracer := providers.Tracer(tracerName)

			qa, err := newQuestionAnswerer(ctx, cfg.Inference, logger, tracer)
			if err != nil {
				return err
			}
			orchestrator, err := generation.NewOrchestrator(qa, cfg.Generation, logger,
				generation.WithTracer(tracer))
			if err != nil {
				return err
			}

			if count == 0 {
				count = cfg.Generation.QuestionCount
			}
			batch, err := orchestrator.Generate(ctx, notes, count)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(batch)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "notes file, or - for stdin")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of flashcards (default from configuration)")
	return cmd
}

func readNotes(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read notes: %w", err)
	}
	return string(data), nil
}
