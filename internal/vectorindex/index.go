package vectorindex

import (
	"context"
	"fmt"

	"docqa/internal/embedding"
	"docqa/internal/ingest"
	"docqa/internal/models"
	"docqa/pkg/logger"
)

// Index implements the Indexer and Searcher contracts: it splits and embeds
// document content, keeps the registry's indexed flags in sync with the
// chunk store and reconciles documents the two disagree on.
type Index struct {
	store    ChunkStore
	embedder embedding.Model
	splitter Splitter
	records  Records
	content  ContentSource
	log      *logger.Logger
}

// NewIndex creates an Index over the given chunk store.
func NewIndex(store ChunkStore, embedder embedding.Model, split Splitter, records Records, content ContentSource, log *logger.Logger) *Index {
	return &Index{
		store:    store,
		embedder: embedder,
		splitter: split,
		records:  records,
		content:  content,
		log:      log,
	}
}

// CreateDocumentEmbeddings splits a document's content, embeds each chunk
// and inserts the batch into the chunk store. A document that yields no
// chunks is marked indexed anyway so it stops reporting as missing.
func (x *Index) CreateDocumentEmbeddings(ctx context.Context, documentID, content string, meta models.Metadata) error {
	chunks := x.splitter.Split(documentID, content, meta)
	if len(chunks) == 0 {
		x.log.Warn(fmt.Sprintf("Document %s produced no chunks, nothing to index", documentID))
		x.markIndexed(ctx, documentID)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks of document %s: %w", documentID, err)
	}

	if err := x.store.InsertChunks(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("failed to store chunks of document %s: %w", documentID, err)
	}
	x.markIndexed(ctx, documentID)

	x.log.Info(fmt.Sprintf("Indexed %d chunks for document %s", len(chunks), documentID))
	return nil
}

// markIndexed flips the registry flag. The chunks are already persisted at
// this point, so a registry failure degrades the status report but must not
// fail the indexing call.
func (x *Index) markIndexed(ctx context.Context, documentID string) {
	if err := x.records.MarkIndexed(ctx, documentID); err != nil {
		x.log.Warn(fmt.Sprintf("Failed to mark document %s as indexed: %v", documentID, err))
	}
}

// SearchAllDocuments embeds the query and runs an L2 similarity search
// across every indexed document.
func (x *Index) SearchAllDocuments(ctx context.Context, query string, topK int) ([]models.Chunk, error) {
	vector, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return x.store.SearchChunks(ctx, vector, topK)
}

// VerifyDocumentEmbeddings reports how many registered documents have been
// indexed and which ones are missing.
func (x *Index) VerifyDocumentEmbeddings(ctx context.Context) (*Status, error) {
	records, err := x.records.List(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{TotalDocuments: len(records), MissingDocuments: []string{}}
	for _, rec := range records {
		if rec.Indexed {
			status.IndexedDocuments++
		} else {
			status.MissingDocuments = append(status.MissingDocuments, rec.ID)
		}
	}
	return status, nil
}

// ProcessMissingEmbeddings indexes every registered document that has no
// embeddings yet. Documents whose stored content is unreadable or not
// indexable (empty, or carrying an extraction error marker) are skipped;
// per-document failures are reported without aborting the sweep.
func (x *Index) ProcessMissingEmbeddings(ctx context.Context) (*Report, error) {
	status, err := x.VerifyDocumentEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Processed: []string{}, Skipped: []string{}, Failed: []string{}}
	for _, id := range status.MissingDocuments {
		content, err := x.content.GetContent(ctx, id)
		if err != nil {
			x.log.Warn(fmt.Sprintf("Cannot read content of document %s: %v", id, err))
			report.Skipped = append(report.Skipped, id)
			continue
		}
		if !ingest.Indexable(content) {
			x.log.Warn(fmt.Sprintf("Document %s has no indexable content, skipping", id))
			report.Skipped = append(report.Skipped, id)
			continue
		}

		rec, err := x.records.Get(ctx, id)
		if err != nil {
			report.Failed = append(report.Failed, id)
			continue
		}

		if err := x.CreateDocumentEmbeddings(ctx, id, content, rec.Metadata); err != nil {
			x.log.Error(fmt.Sprintf("Failed to index document %s: %v", id, err))
			report.Failed = append(report.Failed, id)
			continue
		}
		report.Processed = append(report.Processed, id)
	}

	return report, nil
}

// compile-time checks
var (
	_ Indexer  = (*Index)(nil)
	_ Searcher = (*Index)(nil)
)
