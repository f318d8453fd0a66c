package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor converts a binary document on disk into plain text.
// Implementations may fail or return empty output; callers that need
// resilience should wrap an Extractor in a Retrier.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDFExtractor extracts the plain text of a PDF file.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads every page of the PDF at path and returns its text.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from PDF %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text %s: %w", path, err)
	}

	return buf.String(), nil
}

// compile-time check to ensure PDFExtractor implements the Extractor interface
var _ Extractor = (*PDFExtractor)(nil)
