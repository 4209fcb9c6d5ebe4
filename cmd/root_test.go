package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/fic-tools/rentafic-bot/internal/config"
	"github.com/fic-tools/rentafic-bot/internal/ledger"
	"github.com/fic-tools/rentafic-bot/internal/pipeline"
	storagemem "github.com/fic-tools/rentafic-bot/internal/storage/memory"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (f *stubFetcher) Fetch(context.Context, string) ([]byte, int, error) {
	return f.data, 1, f.err
}

type stubPages struct{}

func (stubPages) FirstPage(pdfBytes []byte) ([]byte, error) { return pdfBytes, nil }

type stubText struct {
	text string
}

func (s *stubText) Extract(context.Context, []byte) (string, error) { return s.text, nil }

type stubDates struct {
	key string
}

func (s *stubDates) Resolve(string) (string, error) { return s.key, nil }

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type stubIDs struct{}

func (stubIDs) NewID() (string, error) { return "run-0042", nil }

// fakeApp satisfies the App interface without touching the network.
type fakeApp struct {
	logger     *zap.Logger
	runner     *pipeline.Runner
	ledgerPath string
	closed     bool
}

func (a *fakeApp) Close()                { a.closed = true }
func (a *fakeApp) Logger() *zap.Logger   { return a.logger }
func (a *fakeApp) Config() config.Config { return config.Config{} }

func (a *fakeApp) Runner() *pipeline.Runner { return a.runner }

func (a *fakeApp) Ledger() (*ledger.Ledger, error) {
	return ledger.Load(a.ledgerPath, a.logger)
}

func installFakeApp(t *testing.T, fake *fakeApp) {
	t.Helper()
	orig := newApp
	newApp = func(context.Context) (App, error) { return fake, nil }
	t.Cleanup(func() { newApp = orig })
}

func newTestRunner(t *testing.T, fetchErr error, ledgerPath string) *pipeline.Runner {
	t.Helper()
	runner, err := pipeline.New(pipeline.Config{
		URL:        "https://example.com/rentabilidades.pdf",
		LedgerFile: ledgerPath,
		DebugFile:  filepath.Join(t.TempDir(), "debug.md"),
	}, pipeline.Deps{
		Fetcher: &stubFetcher{data: []byte("%PDF-1.4 payload"), err: fetchErr},
		Pages:   stubPages{},
		Text:    &stubText{text: "Fecha de publicación: 15 de enero de 2025"},
		Dates:   &stubDates{key: "20250115"},
		Archive: storagemem.New(),
		Clock:   &stubClock{now: time.Date(2025, 1, 15, 6, 0, 0, 0, time.UTC)},
		IDs:     stubIDs{},
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return runner
}

func executeCommand(args ...string) (string, error) {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("RecordsNewReport", func(t *testing.T) {
		ledgerPath := filepath.Join(t.TempDir(), "processed.json")
		fake := &fakeApp{
			logger:     zaptest.NewLogger(t),
			runner:     newTestRunner(t, nil, ledgerPath),
			ledgerPath: ledgerPath,
		}
		installFakeApp(t, fake)

		_, err := executeCommand("run")
		require.NoError(t, err)
		assert.True(t, fake.closed)

		persisted, err := os.ReadFile(ledgerPath)
		require.NoError(t, err)
		assert.Contains(t, string(persisted), "20250115")
	})

	t.Run("FailurePropagatesAsError", func(t *testing.T) {
		ledgerPath := filepath.Join(t.TempDir(), "processed.json")
		fake := &fakeApp{
			logger:     zaptest.NewLogger(t),
			runner:     newTestRunner(t, errors.New("connection refused"), ledgerPath),
			ledgerPath: ledgerPath,
		}
		installFakeApp(t, fake)

		_, err := executeCommand("run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.True(t, fake.closed)
		assert.NoFileExists(t, ledgerPath)
	})
}

func TestLedgerCommand(t *testing.T) {
	t.Run("ListsEntriesSortedByDateKey", func(t *testing.T) {
		ledgerPath := filepath.Join(t.TempDir(), "processed.json")
		content := `{
    "20250301": {"downloaded_at": "2025-03-01_06-00-00", "path": "/raw/2025/03/c.pdf"},
    "20240115": {"downloaded_at": "2024-01-15_06-00-00", "path": "/raw/2024/01/a.pdf"},
    "20241231": {"downloaded_at": "2024-12-31_06-00-00", "path": "/raw/2024/12/b.pdf"}
}`
		require.NoError(t, os.WriteFile(ledgerPath, []byte(content), 0o600))

		fake := &fakeApp{logger: zaptest.NewLogger(t), ledgerPath: ledgerPath}
		installFakeApp(t, fake)

		out, err := executeCommand("ledger")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "20240115\t"))
		assert.True(t, strings.HasPrefix(lines[1], "20241231\t"))
		assert.True(t, strings.HasPrefix(lines[2], "20250301\t"))
		assert.Contains(t, lines[1], "/raw/2024/12/b.pdf")
	})

	t.Run("EmptyLedger", func(t *testing.T) {
		fake := &fakeApp{
			logger:     zaptest.NewLogger(t),
			ledgerPath: filepath.Join(t.TempDir(), "processed.json"),
		}
		installFakeApp(t, fake)

		out, err := executeCommand("ledger")
		require.NoError(t, err)
		assert.Contains(t, out, "ledger is empty")
	})
}
