package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/extract"
	"docqa/internal/models"
	"docqa/internal/storage/docstore"
	"docqa/pkg/logger"
)

// fakePDF stands in for the retry-wrapped PDF extractor.
type fakePDF struct {
	content string
	err     error
	calls   int
}

func (f *fakePDF) Extract(ctx context.Context, path string) (string, error) {
	f.calls++
	return f.content, f.err
}

// memRegistry records Save calls.
type memRegistry struct {
	saved []*models.DocumentRecord
	err   error
}

func (m *memRegistry) Save(ctx context.Context, rec *models.DocumentRecord) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func newTestIngestor(t *testing.T, pdf extract.Extractor, registry Registry) *Ingestor {
	t.Helper()
	store, err := docstore.New(t.TempDir(), logger.New("test"))
	require.NoError(t, err)
	return New(store, pdf, registry, logger.New("test"))
}

func TestIngestTextPersistsAndRegisters(t *testing.T) {
	registry := &memRegistry{}
	ing := newTestIngestor(t, &fakePDF{}, registry)

	rec, err := ing.IngestText(context.Background(), "hello world", "notes.txt", models.Metadata{
		"author": models.String("me"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "notes.txt", rec.Filename)
	assert.Equal(t, int64(len("hello world")), rec.SizeBytes)
	assert.Empty(t, rec.Content, "text path does not echo content")
	assert.Equal(t, "notes.txt", rec.Metadata[models.MetaKeyFilename].AsString())
	assert.Equal(t, "me", rec.Metadata["author"].AsString())
	require.Len(t, registry.saved, 1)

	content, err := ing.GetContent(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
}

func TestIngestTextDefaultsFilename(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	rec, err := ing.IngestText(context.Background(), "content", "", nil)
	require.NoError(t, err)
	assert.Equal(t, rec.ID+".txt", rec.Filename)
	_, ok := rec.Metadata[models.MetaKeyFilename]
	assert.False(t, ok, "no filename metadata when none was given")
}

func TestIngestUploadTextFile(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("markdown body"), "readme.md", nil)
	require.NoError(t, err)

	assert.Equal(t, "readme.md", rec.Filename)
	assert.Equal(t, "markdown body", rec.Content)
	assert.Equal(t, ".md", rec.Metadata[models.MetaKeyFileType].AsString())
	assert.Equal(t, "readme.md", rec.Metadata[models.MetaKeyFilename].AsString())
	assert.True(t, Indexable(rec.Content))
}

func TestIngestUploadReplacesInvalidUTF8(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("ok\xff\xfebytes"), "data.csv", nil)
	require.NoError(t, err)
	assert.Contains(t, rec.Content, "ok")
	assert.Contains(t, rec.Content, "�")
}

func TestIngestUploadUnsupportedExtension(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("\x00\x01binary blob"), "firmware.bin", nil)
	require.NoError(t, err)
	assert.Equal(t, UnsupportedTypePrefix+".bin", rec.Content)
	assert.False(t, Indexable(rec.Content))
}

func TestIngestUploadPDFSuccess(t *testing.T) {
	pdf := &fakePDF{content: "extracted pdf text"}
	ing := newTestIngestor(t, pdf, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("%PDF-1.4 fake"), "paper.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "extracted pdf text", rec.Content)
	assert.Equal(t, 1, pdf.calls)
	assert.True(t, Indexable(rec.Content))
}

func TestIngestUploadPDFTerminalFailureEmbedsReason(t *testing.T) {
	pdf := &fakePDF{err: &extract.TerminalError{Attempts: 3, Err: errors.New("corrupt xref table")}}
	ing := newTestIngestor(t, pdf, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("%PDF-1.4 junk"), "broken.pdf", nil)
	require.NoError(t, err, "ingestion succeeds for the storage step")
	assert.True(t, strings.HasPrefix(rec.Content, ExtractionErrorPrefix))
	assert.Contains(t, rec.Content, "corrupt xref table")
	assert.False(t, Indexable(rec.Content), "extraction failures must not be indexed")
}

func TestIngestUploadDefaultsExtension(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("plain"), "noext", nil)
	require.NoError(t, err)
	assert.Equal(t, ".txt", rec.Metadata[models.MetaKeyFileType].AsString())
	assert.Equal(t, "plain", rec.Content)
}

func TestGetContentReExtractsPDF(t *testing.T) {
	pdf := &fakePDF{content: "pdf text"}
	ing := newTestIngestor(t, pdf, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("%PDF"), "doc.pdf", nil)
	require.NoError(t, err)

	_, err = ing.GetContent(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.calls, "extraction is not cached")
}

func TestGetContentNotFound(t *testing.T) {
	ing := newTestIngestor(t, &fakePDF{}, nil)

	_, err := ing.GetContent(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetContentPDFTerminalFailureIsNotFound(t *testing.T) {
	pdf := &fakePDF{err: &extract.TerminalError{Attempts: 3}}
	ing := newTestIngestor(t, pdf, nil)

	rec, err := ing.IngestUpload(context.Background(), strings.NewReader("%PDF"), "doc.pdf", nil)
	require.NoError(t, err)

	_, err = ing.GetContent(context.Background(), rec.ID)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestRegistryFailureDoesNotFailIngestion(t *testing.T) {
	registry := &memRegistry{err: errors.New("mongo down")}
	ing := newTestIngestor(t, &fakePDF{}, registry)

	_, err := ing.IngestText(context.Background(), "content", "a.txt", nil)
	assert.NoError(t, err)
}

func TestIndexable(t *testing.T) {
	assert.True(t, Indexable("real content"))
	assert.False(t, Indexable(""))
	assert.False(t, Indexable("   \n"))
	assert.False(t, Indexable(UnsupportedTypePrefix+".bin"))
	assert.False(t, Indexable(ExtractionErrorPrefix+"boom"))
}
