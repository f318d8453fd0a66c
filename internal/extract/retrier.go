package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/pkg/logger"
)

// DefaultMaxRetries is the attempt limit applied when none is configured.
const DefaultMaxRetries = 3

// defaultBackoff is the fixed wait between attempts.
const defaultBackoff = time.Second

// TerminalError reports that extraction failed on every attempt.
type TerminalError struct {
	Attempts int
	Err      error // last underlying failure, nil when output was empty
}

func (e *TerminalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no text could be extracted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("no text could be extracted after %d attempts", e.Attempts)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// Retrier wraps an Extractor with bounded retry on failure or empty output.
// Empty and all-whitespace output counts as a failed attempt: some
// converters silently produce nothing for documents they cannot handle.
type Retrier struct {
	extractor  Extractor
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

// NewRetrier creates a Retrier around the given extractor.
// maxRetries values below 1 fall back to DefaultMaxRetries.
func NewRetrier(extractor Extractor, maxRetries int, log *logger.Logger) *Retrier {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &Retrier{
		extractor:  extractor,
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
		log:        log,
	}
}

// Extract attempts extraction up to maxRetries times, waiting a fixed
// interval between attempts. The first non-empty result is returned
// immediately. When the last attempt fails or yields empty output, a
// *TerminalError is returned.
func (r *Retrier) Extract(ctx context.Context, path string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		r.log.Info(fmt.Sprintf("Extracting text from %s (attempt %d/%d)", path, attempt, r.maxRetries))

		content, err := r.extractor.Extract(ctx, path)
		if err == nil && strings.TrimSpace(content) != "" {
			r.log.Info(fmt.Sprintf("Successfully extracted text from %s on attempt %d", path, attempt))
			return content, nil
		}

		lastErr = err
		if err != nil {
			r.log.Error(fmt.Sprintf("Extraction failed for %s (attempt %d/%d): %v", path, attempt, r.maxRetries, err))
		} else {
			r.log.Warn(fmt.Sprintf("No text extracted from %s (attempt %d/%d)", path, attempt, r.maxRetries))
		}

		if attempt < r.maxRetries {
			if err := r.wait(ctx); err != nil {
				return "", &TerminalError{Attempts: attempt, Err: err}
			}
		}
	}

	r.log.Error(fmt.Sprintf("Giving up on %s after %d attempts", path, r.maxRetries))
	return "", &TerminalError{Attempts: r.maxRetries, Err: lastErr}
}

func (r *Retrier) wait(ctx context.Context) error {
	select {
	case <-time.After(r.backoff):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
