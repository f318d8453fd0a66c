package rag

import (
	"fmt"
	"strings"

	"docqa/internal/models"
)

// FormatContext renders retrieved chunks into the context block passed to
// the answer model. Each chunk becomes a labeled, 1-indexed section; the
// sections are separated by blank lines. Empty input renders to an empty
// string, which the synthesizer treats as "no evidence found".
func FormatContext(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	formatted := make([]string, len(chunks))
	for i, chunk := range chunks {
		formatted[i] = fmt.Sprintf("[Chunk %d]\n%s\n", i+1, chunk.Text)
	}

	return strings.Join(formatted, "\n")
}
