// Package cmd defines and implements the CLI commands for the rentafic
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fic-tools/rentafic-bot/internal/app"
	"github.com/fic-tools/rentafic-bot/internal/config"
	"github.com/fic-tools/rentafic-bot/internal/ledger"
	"github.com/fic-tools/rentafic-bot/internal/pipeline"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application surface that commands use. Commands depend on
// this interface so tests can inject a mock app through the newApp factory.
type App interface {
	Close()
	Logger() *zap.Logger
	Config() config.Config
	Runner() *pipeline.Runner
	Ledger() (*ledger.Ledger, error)
}

// newApp is the application factory. It is a variable so tests can replace it
// with a mock factory.
var newApp = func(ctx context.Context) (App, error) {
	return app.New(ctx, cfgFile)
}

// newRootCmd creates and configures the root command. Services are built in
// PersistentPreRunE, after flags are parsed, and torn down in
// PersistentPostRun.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rentafic",
		Short: "One-shot downloader for the FIC profitability report",
		Long: `rentafic fetches the published FIC profitability PDF, resolves its
publication date from the first page, archives the document under a
year/month layout, and records the date in a processed-history ledger so
repeated runs never download the same report twice.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus RENTAFIC_* env)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newLedgerCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. It exits non-zero when any command fails.
func Execute() {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
