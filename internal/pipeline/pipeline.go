// Package pipeline sequences one run of the bot: download, first-page trim,
// text extraction, date resolution, ledger check, and conditional archive
// plus record. Every failure is terminal for the run; the next scheduled
// invocation is the retry mechanism.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fic-tools/rentafic-bot/internal/fetch"
	"github.com/fic-tools/rentafic-bot/internal/ledger"
	"github.com/fic-tools/rentafic-bot/internal/parse"
	"github.com/fic-tools/rentafic-bot/internal/pdfpage"
	"github.com/fic-tools/rentafic-bot/internal/report"
)

// Stage identifies where in the run a failure happened.
type Stage string

// Pipeline stages, in execution order.
const (
	StageDownload    Stage = "download"
	StageFirstPage   Stage = "first_page"
	StageExtractText Stage = "extract_text"
	StageResolveDate Stage = "resolve_date"
	StageLedger      Stage = "ledger"
	StageStore       Stage = "store"
)

// StageError wraps a failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the terminal state of a successful run.
type Outcome string

// Terminal outcomes. A failed run has no outcome, only an error.
const (
	OutcomeRecorded         Outcome = "recorded"
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Result describes a completed run.
type Result struct {
	Outcome Outcome
	RunID   string
	DateKey string
	Path    string
}

// Fetcher downloads the report, reporting how many attempts it took.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, int, error)
}

// PageExtractor trims the report to its first page.
type PageExtractor interface {
	FirstPage(pdfBytes []byte) ([]byte, error)
}

// TextExtractor is the external text-extraction collaborator.
type TextExtractor interface {
	Extract(ctx context.Context, pdfBytes []byte) (string, error)
}

// DateResolver maps extracted text to the canonical date key.
type DateResolver interface {
	Resolve(text string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Category classifies a run failure for exit logging.
func Category(err error) string {
	var dlErr *fetch.DownloadError
	if errors.As(err, &dlErr) {
		return "download"
	}
	var fmtErr *pdfpage.FormatError
	if errors.As(err, &fmtErr) {
		return "format"
	}
	var extErr *parse.ExtractionError
	if errors.As(err, &extErr) {
		return "extraction"
	}
	if errors.Is(err, report.ErrDateNotFound) {
		return "date_not_found"
	}
	var stErr *ledger.StorageError
	if errors.As(err, &stErr) {
		return "storage"
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case StageExtractText:
			return "extraction"
		case StageLedger, StageStore:
			return "storage"
		}
	}
	return "internal"
}

// interface compliance
var (
	_ Fetcher       = (*fetch.Client)(nil)
	_ PageExtractor = (*pdfpage.Extractor)(nil)
	_ DateResolver  = (*report.Resolver)(nil)
)
