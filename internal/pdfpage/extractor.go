// Package pdfpage reduces a downloaded PDF to its first page before the
// document is handed to the text-extraction service, bounding that service's
// cost and latency.
package pdfpage

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// FormatError reports a document that could not be parsed as a PDF or that
// contains no pages.
type FormatError struct {
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed PDF: %v", e.Err)
}

// Unwrap exposes the underlying parse failure.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Extractor trims PDFs down to their first page.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// FirstPage returns a standalone single-page PDF holding only the first page
// of the input document.
func (Extractor) FirstPage(pdfBytes []byte) ([]byte, error) {
	count, err := api.PageCount(bytes.NewReader(pdfBytes), nil)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	if count == 0 {
		return nil, &FormatError{Err: fmt.Errorf("document has no pages")}
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(pdfBytes), &out, []string{"1"}, nil); err != nil {
		return nil, &FormatError{Err: fmt.Errorf("trim to first page: %w", err)}
	}
	return out.Bytes(), nil
}
