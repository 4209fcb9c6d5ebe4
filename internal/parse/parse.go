// Package parse defines the text-extraction collaborator contract shared by
// the LlamaParse cloud client and the offline text-layer extractor.
package parse

import "fmt"

// ExtractionError reports that the collaborator returned no usable text or
// failed at the API level. Fatal for the run.
type ExtractionError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction (%s): %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying failure.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
