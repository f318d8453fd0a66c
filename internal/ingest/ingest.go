package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/extract"
	"docqa/internal/models"
	"docqa/internal/storage/docstore"
	"docqa/pkg/logger"
)

// Content markers embedded when extraction cannot produce usable text.
// They are document content, not errors: storage of the upload succeeded.
const (
	UnsupportedTypePrefix = "Unsupported file type: "
	ExtractionErrorPrefix = "Error processing PDF: "
)

// Registry receives a record for every ingested document.
type Registry interface {
	Save(ctx context.Context, rec *models.DocumentRecord) error
}

// Indexable reports whether extracted content should be passed to the
// embedding indexer. Marker strings and empty content are not evidence.
func Indexable(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return !strings.HasPrefix(content, UnsupportedTypePrefix) &&
		!strings.HasPrefix(content, ExtractionErrorPrefix)
}

// Ingestor turns submitted text and uploaded files into persisted,
// identified document records.
type Ingestor struct {
	store    *docstore.Store
	pdf      extract.Extractor // retry-wrapped PDF extraction
	registry Registry          // optional, may be nil
	log      *logger.Logger
}

// New creates an Ingestor. registry may be nil when no record registry is
// configured.
func New(store *docstore.Store, pdf extract.Extractor, registry Registry, log *logger.Logger) *Ingestor {
	return &Ingestor{store: store, pdf: pdf, registry: registry, log: log}
}

// IngestText persists raw text content as a new document.
// The returned record does not echo the content; callers that need to index
// it already hold the original text.
func (ing *Ingestor) IngestText(ctx context.Context, content, filename string, meta models.Metadata) (*models.DocumentRecord, error) {
	id := uuid.New().String()

	path, size, err := ing.store.SaveText(id, content)
	if err != nil {
		return nil, err
	}

	docMeta := meta.Merge(nil)
	if filename != "" {
		docMeta[models.MetaKeyFilename] = models.String(filename)
	}
	if filename == "" {
		filename = id + ".txt"
	}

	rec := &models.DocumentRecord{
		ID:          id,
		Filename:    filename,
		StoragePath: path,
		SizeBytes:   size,
		Metadata:    docMeta,
		CreatedAt:   time.Now().UTC(),
	}
	ing.register(ctx, rec)

	ing.log.Info(fmt.Sprintf("Ingested text document %s (%d bytes)", id, size))
	return rec, nil
}

// IngestUpload persists an uploaded file verbatim and extracts its content
// according to the file type. Terminal PDF extraction failure does not fail
// the upload: the failure reason is embedded as the document's content and
// callers must check Indexable before indexing it.
func (ing *Ingestor) IngestUpload(ctx context.Context, file io.Reader, filename string, meta models.Metadata) (*models.DocumentRecord, error) {
	id := uuid.New().String()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".txt"
	}

	path, size, err := ing.store.SaveUpload(id, ext, file)
	if err != nil {
		return nil, err
	}

	var content string
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".csv":
		content, err = ing.store.ReadText(path)
		if err != nil {
			return nil, err
		}
	case ".pdf":
		content, err = ing.pdf.Extract(ctx, path)
		if err != nil {
			ing.log.Error(fmt.Sprintf("PDF extraction failed for %s: %v", path, err))
			content = ExtractionErrorPrefix + err.Error()
		}
	default:
		content = UnsupportedTypePrefix + ext
	}

	docMeta := meta.Merge(models.Metadata{
		models.MetaKeyFilename: models.String(filename),
		models.MetaKeyFileType: models.String(ext),
	})
	if ctype := ing.store.DetectContentType(path); ctype != "" {
		docMeta[models.MetaKeyContentType] = models.String(ctype)
	}

	if filename == "" {
		filename = id + ext
	}

	rec := &models.DocumentRecord{
		ID:          id,
		Filename:    filename,
		StoragePath: path,
		SizeBytes:   size,
		Metadata:    docMeta,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	ing.register(ctx, rec)

	ing.log.Info(fmt.Sprintf("Ingested upload %s as document %s (%d bytes)", filename, id, size))
	return rec, nil
}

// GetContent retrieves the current content of a stored document. PDF
// content is re-extracted on every call; extraction results are not cached.
// docstore.ErrNotFound is returned when no stored file matches the ID or
// when a stored PDF can no longer be read.
func (ing *Ingestor) GetContent(ctx context.Context, id string) (string, error) {
	path, ext, err := ing.store.Find(id)
	if err != nil {
		return "", err
	}

	if strings.ToLower(ext) == ".pdf" {
		content, err := ing.pdf.Extract(ctx, path)
		if err != nil {
			ing.log.Error(fmt.Sprintf("Failed to re-extract PDF %s: %v", path, err))
			return "", docstore.ErrNotFound
		}
		return content, nil
	}

	return ing.store.ReadText(path)
}

// register records the document in the registry. Registry failures degrade
// the reconciliation sweep but must not fail an ingestion whose storage
// step succeeded.
func (ing *Ingestor) register(ctx context.Context, rec *models.DocumentRecord) {
	if ing.registry == nil {
		return
	}
	if err := ing.registry.Save(ctx, rec); err != nil {
		ing.log.Warn(fmt.Sprintf("Failed to register document %s: %v", rec.ID, err))
	}
}
