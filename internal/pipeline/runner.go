package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fic-tools/rentafic-bot/internal/ledger"
	"github.com/fic-tools/rentafic-bot/internal/metrics"
	"github.com/fic-tools/rentafic-bot/internal/notify"
	"github.com/fic-tools/rentafic-bot/internal/storage"
)

// Config holds the run parameters not owned by a collaborator.
type Config struct {
	URL        string
	LedgerFile string
	DebugFile  string
}

// Deps bundles the collaborators a Runner sequences.
type Deps struct {
	Fetcher  Fetcher
	Pages    PageExtractor
	Text     TextExtractor
	Dates    DateResolver
	Archive  storage.Provider
	Mirror   storage.Provider // optional
	Notifier notify.Publisher // optional
	Recorder *metrics.Recorder
	Clock    Clock
	IDs      IDGenerator
	Logger   *zap.Logger
}

// Runner executes one pipeline pass per invocation.
type Runner struct {
	cfg  Config
	deps Deps
}

// New constructs a Runner. Optional collaborators default to no-ops.
func New(cfg Config, deps Deps) (*Runner, error) {
	switch {
	case deps.Fetcher == nil, deps.Pages == nil, deps.Text == nil, deps.Dates == nil,
		deps.Archive == nil, deps.Clock == nil, deps.IDs == nil, deps.Logger == nil:
		return nil, fmt.Errorf("pipeline: missing required collaborator")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NoOpPublisher{}
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.New("", "rentafic")
	}
	return &Runner{cfg: cfg, deps: deps}, nil
}

// Run performs one pass and reports the terminal outcome. Metrics are
// recorded and pushed regardless of how the run ends.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := r.deps.Clock.Now()

	runID, err := r.deps.IDs.NewID()
	if err != nil {
		r.deps.Logger.Warn("run id generation failed", zap.Error(err))
	}
	logger := r.deps.Logger.With(zap.String("run_id", runID))

	result, runErr := r.runOnce(ctx, logger, runID)

	outcome := "failed"
	if runErr == nil {
		outcome = string(result.Outcome)
	}
	r.deps.Recorder.ObserveRun(outcome, r.deps.Clock.Now().Sub(start))
	if pushErr := r.deps.Recorder.Push(); pushErr != nil {
		logger.Warn("metrics push failed", zap.Error(pushErr))
	}

	return result, runErr
}

func (r *Runner) runOnce(ctx context.Context, logger *zap.Logger, runID string) (Result, error) {
	led, err := ledger.Load(r.cfg.LedgerFile, logger)
	if err != nil {
		return Result{}, &StageError{Stage: StageLedger, Err: err}
	}

	logger.Info("downloading report", zap.String("url", r.cfg.URL))
	pdf, attempts, err := r.deps.Fetcher.Fetch(ctx, r.cfg.URL)
	r.deps.Recorder.ObserveDownload(attempts)
	if err != nil {
		return Result{}, &StageError{Stage: StageDownload, Err: err}
	}
	r.deps.Recorder.ObserveReport(len(pdf))

	page, err := r.deps.Pages.FirstPage(pdf)
	if err != nil {
		return Result{}, &StageError{Stage: StageFirstPage, Err: err}
	}

	logger.Info("extracting first-page text")
	text, err := r.deps.Text.Extract(ctx, page)
	if err != nil {
		return Result{}, &StageError{Stage: StageExtractText, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, &StageError{Stage: StageExtractText, Err: fmt.Errorf("extractor returned empty text")}
	}

	dateKey, err := r.deps.Dates.Resolve(text)
	if err != nil {
		r.writeDebug(logger, text)
		logger.Error("publication date not found in extracted text",
			zap.String("text_head", head(text, 500)))
		return Result{}, &StageError{Stage: StageResolveDate, Err: err}
	}
	logger.Info("publication date detected", zap.String("date_key", dateKey))

	if led.Contains(dateKey) {
		logger.Info("report already processed, skipping",
			zap.String("date_key", dateKey))
		return Result{Outcome: OutcomeAlreadyProcessed, RunID: runID, DateKey: dateKey}, nil
	}

	now := r.deps.Clock.Now()
	objectName, err := storage.ObjectName(dateKey, now)
	if err != nil {
		return Result{}, &StageError{Stage: StageStore, Err: err}
	}

	path, err := r.deps.Archive.Save(ctx, objectName, pdf)
	if err != nil {
		return Result{}, &StageError{Stage: StageStore, Err: err}
	}
	logger.Info("new report archived", zap.String("path", path))

	if r.deps.Mirror != nil {
		if uri, mErr := r.deps.Mirror.Save(ctx, objectName, pdf); mErr != nil {
			logger.Warn("mirror upload failed", zap.Error(mErr))
		} else {
			logger.Info("report mirrored", zap.String("uri", uri))
		}
	}

	downloadedAt := now.Format(storage.TimestampLayout)
	rec := ledger.Record{DownloadedAt: downloadedAt, Path: path}
	if err := led.Record(dateKey, rec); err != nil {
		return Result{}, &StageError{Stage: StageStore, Err: err}
	}
	if err := led.Persist(); err != nil {
		return Result{}, &StageError{Stage: StageStore, Err: err}
	}

	event := notify.Event{RunID: runID, DateKey: dateKey, Path: path, DownloadedAt: downloadedAt}
	if err := r.deps.Notifier.Publish(ctx, event); err != nil {
		logger.Warn("notification publish failed", zap.Error(err))
	}

	return Result{Outcome: OutcomeRecorded, RunID: runID, DateKey: dateKey, Path: path}, nil
}

// writeDebug dumps the extracted text for offline inspection. Best effort;
// the debug artifact is diagnostic only and never part of the idempotency
// contract.
func (r *Runner) writeDebug(logger *zap.Logger, text string) {
	if r.cfg.DebugFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.cfg.DebugFile), 0o750); err != nil {
		logger.Warn("debug artifact directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(r.cfg.DebugFile, []byte(text), 0o600); err != nil {
		logger.Warn("debug artifact write failed", zap.Error(err))
		return
	}
	logger.Info("extracted text saved for inspection", zap.String("path", r.cfg.DebugFile))
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
