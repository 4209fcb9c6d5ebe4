// Package gcs mirrors archived reports into a Google Cloud Storage bucket.
// The local archive plus the ledger remain the source of truth; the mirror
// exists for off-host retention.
package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// Mirror implements the storage provider interface on a GCS bucket.
type Mirror struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// New creates a GCS client and verifies access to the bucket, failing fast
// on startup if the configuration is wrong. Authentication uses Application
// Default Credentials.
func New(ctx context.Context, bucket string, logger *zap.Logger) (*Mirror, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close GCS client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get GCS bucket %q attributes: %w", bucket, err)
	}

	return &Mirror{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads the report to the bucket under the archive-relative object
// name and returns a gs:// URI.
func (m *Mirror) Save(ctx context.Context, objectName string, data []byte) (string, error) {
	wc := m.client.Bucket(m.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/pdf"

	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			m.logger.Warn("failed to close GCS writer after write failure", zap.Error(closeErr))
		}
		return "", fmt.Errorf("write GCS object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize GCS object %s: %w", objectName, err)
	}

	return fmt.Sprintf("gs://%s/%s", m.bucket, objectName), nil
}

// Close releases the underlying client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
