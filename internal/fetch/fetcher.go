// Package fetch downloads the published report with bounded retries and
// exponential backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DownloadError is returned once every attempt has been exhausted. It is
// fatal for the run; the next scheduled invocation is the retry mechanism.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes the last attempt's failure.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Config controls the retry schedule. MaxRetries is the total number of
// attempts; the wait before attempt n+1 is BackoffBase * 2^(n-1).
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Client performs the report download.
type Client struct {
	cfg    Config
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger
}

// New builds a Client. The underlying HTTP client applies cfg.Timeout to
// every attempt.
func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepContext,
		logger: logger,
	}
}

// Fetch downloads url and returns the complete response body plus the
// number of attempts it took. Every network-layer failure (timeout,
// connection error, non-2xx status, empty body) counts as a failed attempt;
// between attempts the client waits according to the exponential backoff
// schedule. No bytes touch disk here.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, int, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, attempt, nil
		}
		lastErr = err
		c.logger.Warn("download attempt failed",
			zap.Int("attempt", attempt),
			zap.String("url", url),
			zap.Error(err),
		)

		if attempt < c.cfg.MaxRetries {
			wait := c.cfg.BackoffBase * time.Duration(1<<(attempt-1))
			c.logger.Info("waiting before next attempt", zap.Duration("wait", wait))
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, attempt, &DownloadError{URL: url, Attempts: attempt, Err: serr}
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no download attempts allowed (max_retries=%d)", c.cfg.MaxRetries)
	}
	return nil, c.cfg.MaxRetries, &DownloadError{URL: url, Attempts: c.cfg.MaxRetries, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "pdf") {
		c.logger.Warn("response content type is not a PDF", zap.String("content_type", ct))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
