// Package storage defines the archive layout for downloaded reports and the
// interface for blob storage backends. The abstraction keeps the pipeline
// independent of where the PDF lands (local filesystem, GCS mirror).
package storage

import (
	"context"
	"fmt"
	"time"
)

// Provider saves a report under an object name and returns where it landed.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) (string, error)
}

// TimestampLayout formats the download moment embedded in file names and
// ledger records.
const TimestampLayout = "2006-01-02_15-04-05"

// ObjectName derives the archive-relative path for a report:
// <YYYY>/<MM>/rentabilidades_fic_<YYYYMMDD>_downloaded_<timestamp>.pdf.
// The date key must be a canonical 8-digit key.
func ObjectName(dateKey string, downloadedAt time.Time) (string, error) {
	if len(dateKey) != 8 {
		return "", fmt.Errorf("invalid date key %q", dateKey)
	}
	year, month := dateKey[:4], dateKey[4:6]
	return fmt.Sprintf("%s/%s/rentabilidades_fic_%s_downloaded_%s.pdf",
		year, month, dateKey, downloadedAt.Format(TimestampLayout)), nil
}
