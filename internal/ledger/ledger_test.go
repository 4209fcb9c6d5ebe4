package ledger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fic-tools/rentafic-bot/internal/ledger"
)

func TestLoad(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed.json")
		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())
	})

	t.Run("ExistingEntries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed.json")
		body := `{"20250115": {"downloaded_at": "2025-01-15_06-00-00", "path": "/data/raw/2025/01/x.pdf"}}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.True(t, l.Contains("20250115"))
		assert.False(t, l.Contains("20250116"))
	})

	t.Run("CorruptFileBackedUpAndReset", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "processed.json")
		corrupt := []byte(`{"20250115": not valid json`)
		require.NoError(t, os.WriteFile(path, corrupt, 0o600))

		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, 0, l.Len())

		backup, err := os.ReadFile(path + ".bak")
		require.NoError(t, err)
		assert.Equal(t, corrupt, backup)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("CorruptBackupOverwritesPriorBackup", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "processed.json")
		require.NoError(t, os.WriteFile(path+".bak", []byte("old backup"), 0o600))
		require.NoError(t, os.WriteFile(path, []byte("fresh corruption"), 0o600))

		_, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)

		backup, err := os.ReadFile(path + ".bak")
		require.NoError(t, err)
		assert.Equal(t, []byte("fresh corruption"), backup)
	})
}

func TestRecordAndPersist(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "processed.json")
		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)

		rec := ledger.Record{DownloadedAt: "2025-01-15_06-00-00", Path: "/data/raw/2025/01/x.pdf"}
		require.NoError(t, l.Record("20250115", rec))
		require.NoError(t, l.Persist())

		reloaded, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.True(t, reloaded.Contains("20250115"))
		assert.Equal(t, map[string]ledger.Record{"20250115": rec}, reloaded.Entries())
	})

	t.Run("PersistLoadIsSemanticNoOp", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed.json")
		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, l.Record("20251201", ledger.Record{DownloadedAt: "a", Path: "b"}))
		require.NoError(t, l.Persist())

		before, err := os.ReadFile(path)
		require.NoError(t, err)

		again, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, again.Persist())

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("DuplicateKeyRejected", func(t *testing.T) {
		l, err := ledger.Load(filepath.Join(t.TempDir(), "processed.json"), zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, l.Record("20250115", ledger.Record{}))
		assert.Error(t, l.Record("20250115", ledger.Record{}))
	})

	t.Run("PersistWritesIndentedJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed.json")
		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, l.Record("20250115", ledger.Record{DownloadedAt: "ts", Path: "p"}))
		require.NoError(t, l.Persist())

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var decoded map[string]ledger.Record
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Contains(t, string(data), "\n    ")
	})

	t.Run("FailedPersistKeepsPreviousFile", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("directory permissions do not restrict root")
		}
		dir := t.TempDir()
		path := filepath.Join(dir, "processed.json")
		l, err := ledger.Load(path, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NoError(t, l.Record("20250115", ledger.Record{DownloadedAt: "ts", Path: "p"}))
		require.NoError(t, l.Persist())

		before, err := os.ReadFile(path)
		require.NoError(t, err)

		// Make the directory read-only so the temp-file write fails.
		require.NoError(t, os.Chmod(dir, 0o500))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

		require.NoError(t, l.Record("20250116", ledger.Record{DownloadedAt: "ts2", Path: "p2"}))
		err = l.Persist()

		var storageErr *ledger.StorageError
		require.ErrorAs(t, err, &storageErr)

		require.NoError(t, os.Chmod(dir, 0o700))
		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
