// Package localtext extracts the embedded text layer of a PDF without
// calling any external service. Scanned (image-only) documents yield no
// text and are reported as extraction failures.
package localtext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/fic-tools/rentafic-bot/internal/parse"
)

const providerName = "local"

// Extractor implements the text-extraction contract on the local text layer.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text layer of every page, joined with blank lines.
func (Extractor) Extract(ctx context.Context, pdfBytes []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &parse.ExtractionError{Provider: providerName, Err: err}
	}

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", &parse.ExtractionError{Provider: providerName, Err: fmt.Errorf("open pdf: %w", err)}
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", &parse.ExtractionError{Provider: providerName, Err: fmt.Errorf("read page %d: %w", i, err)}
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	if len(parts) == 0 {
		return "", &parse.ExtractionError{Provider: providerName, Err: fmt.Errorf("document has no text layer")}
	}
	return strings.Join(parts, "\n\n"), nil
}
