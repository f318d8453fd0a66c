package docstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"docqa/pkg/logger"
)

// ErrNotFound is returned when no stored file matches a document ID.
var ErrNotFound = errors.New("document not found")

// ProbeExtensions is the fixed priority order used when locating a stored
// document by ID alone.
var ProbeExtensions = []string{".txt", ".md", ".csv", ".pdf"}

// Store persists one file per document under a root directory,
// named <documentID><extension>.
type Store struct {
	root string
	log  *logger.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory %s: %w", dir, err)
	}
	return &Store{root: dir, log: log}, nil
}

// Root returns the root directory of the store.
func (s *Store) Root() string { return s.root }

// Path returns the storage path for a document ID and extension.
func (s *Store) Path(id, ext string) string {
	return filepath.Join(s.root, id+ext)
}

// SaveText writes text content as <id>.txt and returns its path and size.
func (s *Store) SaveText(id, content string) (string, int64, error) {
	path := s.Path(id, ".txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return path, int64(len(content)), nil
}

// SaveUpload streams uploaded bytes verbatim to <id><ext> and returns the
// path and number of bytes written.
func (s *Store) SaveUpload(id, ext string, r io.Reader) (string, int64, error) {
	path := s.Path(id, ext)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create document file %s: %w", path, err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write document file %s: %w", path, err)
	}
	return path, size, nil
}

// Find probes the supported extensions in priority order and returns the
// path and extension of the first stored file matching id.
// ErrNotFound is returned when no extension matches.
func (s *Store) Find(id string) (string, string, error) {
	for _, ext := range ProbeExtensions {
		path := s.Path(id, ext)
		if _, err := os.Stat(path); err == nil {
			return path, ext, nil
		}
	}
	return "", "", ErrNotFound
}

// ReadText reads a stored file as text. Invalid byte sequences are
// replaced with the Unicode replacement character rather than failing.
func (s *Store) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document file %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// DetectContentType sniffs the MIME type of a stored file from its content.
// Detection failures are non-fatal: an empty string is returned.
func (s *Store) DetectContentType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Failed to detect MIME type of %s: %v", path, err))
		return ""
	}
	return mtype.String()
}
