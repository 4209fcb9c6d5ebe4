package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fic-tools/rentafic-bot/internal/pipeline"
)

// newRunCmd creates the 'run' subcommand, the bot's main entry point. It
// performs one download-and-record pass and exits.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the current report and record it if new",
		Long: `Performs one pass: downloads the published PDF, extracts the first
page's text, resolves the publication date, and archives the document
unless that date was already processed. The exit status is zero when the
report is recorded or was already processed, non-zero on any failure.`,

		RunE: runRunCommand,
	}
	return cmd
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	result, err := appInstance.Runner().Run(cmd.Context())
	if err != nil {
		logger.Error("run failed",
			zap.String("category", pipeline.Category(err)),
			zap.Error(err),
		)
		return fmt.Errorf("run: %w", err)
	}

	switch result.Outcome {
	case pipeline.OutcomeAlreadyProcessed:
		logger.Info("report already processed",
			zap.String("date_key", result.DateKey))
	default:
		logger.Info("report recorded",
			zap.String("date_key", result.DateKey),
			zap.String("path", result.Path))
	}
	return nil
}
