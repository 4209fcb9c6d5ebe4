// Package llamaparse implements text extraction against the LlamaParse
// cloud API: upload the document, poll the parsing job, fetch the result.
package llamaparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fic-tools/rentafic-bot/internal/parse"
)

const providerName = "llamaparse"

// Config holds client parameters. ResultType is "markdown" or "text";
// Language matches the source document's language.
type Config struct {
	BaseURL      string
	APIKey       string
	ResultType   string
	Verbose      bool
	Language     string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to the LlamaParse parsing endpoints.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llamaparse base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llamaparse API key is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

type uploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type jobResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type resultResponse struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

// Extract uploads the single-page PDF and returns the extracted text. The
// whole upload-poll-fetch sequence is bounded by the configured timeout in
// addition to ctx.
func (c *Client) Extract(ctx context.Context, pdfBytes []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	jobID, err := c.upload(ctx, pdfBytes)
	if err != nil {
		return "", &parse.ExtractionError{Provider: providerName, Err: err}
	}
	if c.cfg.Verbose {
		c.logger.Info("parsing job submitted", zap.String("job_id", jobID))
	}

	if err := c.waitForJob(ctx, jobID); err != nil {
		return "", &parse.ExtractionError{Provider: providerName, Err: err}
	}

	text, err := c.fetchResult(ctx, jobID)
	if err != nil {
		return "", &parse.ExtractionError{Provider: providerName, Err: err}
	}
	if text == "" {
		return "", &parse.ExtractionError{Provider: providerName, Err: fmt.Errorf("job %s returned empty text", jobID)}
	}
	return text, nil
}

func (c *Client) upload(ctx context.Context, pdfBytes []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "first_page.pdf")
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(pdfBytes); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.WriteField("language", c.cfg.Language); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var resp uploadResponse
	url := c.cfg.BaseURL + "/api/parsing/upload"
	if err := c.do(ctx, http.MethodPost, url, &body, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("upload response missing job id")
	}
	return resp.ID, nil
}

func (c *Client) waitForJob(ctx context.Context, jobID string) error {
	url := fmt.Sprintf("%s/api/parsing/job/%s", c.cfg.BaseURL, jobID)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		var job jobResponse
		if err := c.do(ctx, http.MethodGet, url, nil, "", &job); err != nil {
			return err
		}
		switch job.Status {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELED":
			return fmt.Errorf("job %s finished with status %s: %s", jobID, job.Status, job.Error)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, jobID string) (string, error) {
	url := fmt.Sprintf("%s/api/parsing/job/%s/result/%s", c.cfg.BaseURL, jobID, c.cfg.ResultType)
	var result resultResponse
	if err := c.do(ctx, http.MethodGet, url, nil, "", &result); err != nil {
		return "", err
	}
	if c.cfg.ResultType == "text" {
		return result.Text, nil
	}
	return result.Markdown, nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, payload)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
