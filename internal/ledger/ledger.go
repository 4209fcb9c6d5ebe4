// Package ledger persists the mapping from publication-date key to
// processing record. The ledger is what makes repeated runs idempotent: a
// date key present here is never downloaded again.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Record describes one processed report. Immutable once written.
type Record struct {
	DownloadedAt string `json:"downloaded_at"`
	Path         string `json:"path"`
}

// StorageError reports an unrecoverable persistence failure. The downloaded
// artifact may already be on disk, but without the ledger entry the next run
// will re-attempt the same publication date.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Ledger is the in-memory view of the durable date-key store. It is loaded
// at run start, mutated by at most one insertion, and persisted as a whole.
type Ledger struct {
	path    string
	entries map[string]Record
	logger  *zap.Logger
}

// Load reads the ledger file at path. A missing file yields an empty ledger.
// A file that cannot be parsed is moved aside to <path>.bak (replacing any
// prior backup) and an empty ledger is returned; the run continues.
func Load(path string, logger *zap.Logger) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]Record), logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		logger.Warn("ledger file unreadable, starting empty",
			zap.String("path", path), zap.Error(err))
		return l, nil
	}

	if jsonErr := json.Unmarshal(data, &l.entries); jsonErr != nil {
		backup := path + ".bak"
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return nil, &StorageError{Op: "backup", Path: path, Err: renameErr}
		}
		logger.Warn("corrupt ledger file moved aside, starting empty",
			zap.String("path", path),
			zap.String("backup", backup),
			zap.Error(jsonErr),
		)
		l.entries = make(map[string]Record)
	}
	return l, nil
}

// Contains reports whether the date key has already been processed.
func (l *Ledger) Contains(dateKey string) bool {
	_, ok := l.entries[dateKey]
	return ok
}

// Record inserts a processing record. The caller must check Contains first;
// inserting an existing key is rejected rather than silently overwritten.
func (l *Ledger) Record(dateKey string, rec Record) error {
	if l.Contains(dateKey) {
		return fmt.Errorf("date key %s already recorded", dateKey)
	}
	l.entries[dateKey] = rec
	return nil
}

// Persist writes the full mapping back to durable storage, replacing the
// previous version. The write goes to a temporary file in the same directory
// followed by a rename, so a failure mid-write leaves the previously
// persisted ledger intact.
func (l *Ledger) Persist() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	payload, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		return &StorageError{Op: "marshal", Path: l.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return &StorageError{Op: "create temp", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "replace", Path: l.path, Err: err}
	}
	return nil
}

// Entries returns a copy of the mapping, for inspection commands.
func (l *Ledger) Entries() map[string]Record {
	out := make(map[string]Record, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of recorded reports.
func (l *Ledger) Len() int {
	return len(l.entries)
}
