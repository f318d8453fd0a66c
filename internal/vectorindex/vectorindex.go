package vectorindex

import (
	"context"

	"docqa/internal/models"
)

// Searcher is the similarity-search contract consumed by the retrieval
// aggregator.
type Searcher interface {
	// SearchAllDocuments returns up to topK chunks relevant to the query,
	// scored by L2 distance (lower is more relevant).
	SearchAllDocuments(ctx context.Context, query string, topK int) ([]models.Chunk, error)
}

// Indexer is the indexing contract consumed by the document API.
type Indexer interface {
	CreateDocumentEmbeddings(ctx context.Context, documentID, content string, meta models.Metadata) error
	VerifyDocumentEmbeddings(ctx context.Context) (*Status, error)
	ProcessMissingEmbeddings(ctx context.Context) (*Report, error)
}

// ContentSource resolves a document ID to its current extracted content.
type ContentSource interface {
	GetContent(ctx context.Context, documentID string) (string, error)
}

// Records is the registry view the index keeps in sync.
type Records interface {
	List(ctx context.Context) ([]models.DocumentRecord, error)
	Get(ctx context.Context, id string) (*models.DocumentRecord, error)
	MarkIndexed(ctx context.Context, id string) error
}

// Splitter chunks document content before embedding.
type Splitter interface {
	Split(documentID, text string, meta models.Metadata) []models.Chunk
}

// ChunkStore is the vector collection behind the index: chunk persistence
// and raw similarity search.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	SearchChunks(ctx context.Context, vector []float32, topK int) ([]models.Chunk, error)
}

// Status is the embedding-index health report.
type Status struct {
	TotalDocuments   int      `json:"total_documents"`
	IndexedDocuments int      `json:"indexed_documents"`
	MissingDocuments []string `json:"missing_documents"`
}

// Report summarizes a reconciliation sweep over unindexed documents.
type Report struct {
	Processed []string `json:"processed"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
}
