// Package notify defines the interface for announcing newly archived
// reports. This abstraction keeps the pipeline independent of the message
// transport (GCP Pub/Sub in production, in-memory in tests).
package notify

import "context"

// Event describes one newly processed report.
type Event struct {
	RunID        string `json:"run_id"`
	DateKey      string `json:"date_key"`
	Path         string `json:"path"`
	DownloadedAt string `json:"downloaded_at"`
}

// Publisher announces events to downstream consumers.
type Publisher interface {
	// Publish sends the event. A failure here must not undo an already
	// recorded report; callers treat it as non-fatal.
	Publish(ctx context.Context, event Event) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpPublisher is used when no notification transport is configured.
type NoOpPublisher struct{}

// Publish for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) Publish(_ context.Context, _ Event) error { return nil }

// Close for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) Close() error { return nil }
