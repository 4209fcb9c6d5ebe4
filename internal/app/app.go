// Package app initializes and holds the long-lived services for one bot
// invocation, acting as the composition root. Configuration is loaded once
// and passed into each component's constructor; no component reads ambient
// global state.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	clocksystem "github.com/fic-tools/rentafic-bot/internal/clock/system"
	"github.com/fic-tools/rentafic-bot/internal/config"
	"github.com/fic-tools/rentafic-bot/internal/fetch"
	iduuid "github.com/fic-tools/rentafic-bot/internal/id/uuid"
	"github.com/fic-tools/rentafic-bot/internal/ledger"
	"github.com/fic-tools/rentafic-bot/internal/logging"
	"github.com/fic-tools/rentafic-bot/internal/metrics"
	"github.com/fic-tools/rentafic-bot/internal/notify"
	notifypubsub "github.com/fic-tools/rentafic-bot/internal/notify/pubsub"
	"github.com/fic-tools/rentafic-bot/internal/parse/llamaparse"
	"github.com/fic-tools/rentafic-bot/internal/parse/localtext"
	"github.com/fic-tools/rentafic-bot/internal/pdfpage"
	"github.com/fic-tools/rentafic-bot/internal/pipeline"
	"github.com/fic-tools/rentafic-bot/internal/report"
	"github.com/fic-tools/rentafic-bot/internal/storage"
	storagegcs "github.com/fic-tools/rentafic-bot/internal/storage/gcs"
	storagelocal "github.com/fic-tools/rentafic-bot/internal/storage/local"
)

// App holds the wired services behind the CLI commands.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	runner   *pipeline.Runner
	notifier notify.Publisher
	mirror   *storagegcs.Mirror
}

// New builds the full service graph from the configuration file at cfgPath.
// It fails fast on any configuration or construction problem, before any
// network activity.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:     cfg.Download.Timeout(),
		MaxRetries:  cfg.Download.MaxRetries,
		BackoffBase: cfg.Download.BackoffBase(),
	}, logger)

	extractor, err := newTextExtractor(cfg.LlamaParse, logger)
	if err != nil {
		return nil, err
	}

	resolver, err := newDateResolver(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init date resolver: %w", err)
	}

	archive, err := storagelocal.New(storagelocal.Config{BaseDir: cfg.Paths.RawPDFBase})
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}

	var gcsMirror *storagegcs.Mirror
	var mirror storage.Provider
	if cfg.Storage.GCSBucket != "" {
		logger.Info("mirroring reports to GCS", zap.String("bucket", cfg.Storage.GCSBucket))
		gcsMirror, err = storagegcs.New(ctx, cfg.Storage.GCSBucket, logger)
		if err != nil {
			return nil, fmt.Errorf("init GCS mirror: %w", err)
		}
		mirror = gcsMirror
	}

	var notifier notify.Publisher = notify.NoOpPublisher{}
	if cfg.Notify.Enabled() {
		logger.Info("publishing notifications to Pub/Sub",
			zap.String("project", cfg.Notify.ProjectID),
			zap.String("topic", cfg.Notify.TopicID),
		)
		notifier, err = notifypubsub.New(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID, logger)
		if err != nil {
			return nil, fmt.Errorf("init notifier: %w", err)
		}
	}

	recorder := metrics.New(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName)

	runner, err := pipeline.New(pipeline.Config{
		URL:        cfg.Download.URL,
		LedgerFile: cfg.Paths.LedgerFile,
		DebugFile:  cfg.Paths.DebugFile,
	}, pipeline.Deps{
		Fetcher:  fetcher,
		Pages:    pdfpage.New(),
		Text:     extractor,
		Dates:    resolver,
		Archive:  archive,
		Mirror:   mirror,
		Notifier: notifier,
		Recorder: recorder,
		Clock:    clocksystem.New(),
		IDs:      iduuid.New(),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	return &App{cfg: cfg, logger: logger, runner: runner, notifier: notifier, mirror: gcsMirror}, nil
}

func newDateResolver(cfg config.Config, logger *zap.Logger) (*report.Resolver, error) {
	return report.NewResolver(cfg.DatePatterns.Primary, cfg.DatePatterns.Fallback, cfg.Months, logger)
}

func newTextExtractor(cfg config.LlamaParseConfig, logger *zap.Logger) (pipeline.TextExtractor, error) {
	switch cfg.Provider {
	case "local":
		logger.Info("using local text-layer extraction")
		return localtext.New(), nil
	case "llama":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("LLAMA_CLOUD_API_KEY")
		}
		client, err := llamaparse.New(llamaparse.Config{
			BaseURL:      cfg.BaseURL,
			APIKey:       apiKey,
			ResultType:   cfg.ResultType,
			Verbose:      cfg.Verbose,
			Language:     cfg.Language,
			PollInterval: cfg.PollInterval(),
			Timeout:      cfg.Timeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init llamaparse client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown text extraction provider %q", cfg.Provider)
	}
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Runner returns the wired pipeline runner.
func (a *App) Runner() *pipeline.Runner {
	return a.runner
}

// Ledger loads the current processed-history ledger from disk.
func (a *App) Ledger() (*ledger.Ledger, error) {
	return ledger.Load(a.cfg.Paths.LedgerFile, a.logger)
}

// Close shuts down services and flushes the logger.
func (a *App) Close() {
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("error closing notifier", zap.Error(err))
	}
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			a.logger.Warn("error closing GCS mirror", zap.Error(err))
		}
	}
	// Best effort: syncing stderr-backed loggers fails on some platforms.
	_ = a.logger.Sync()
}
