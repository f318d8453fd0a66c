package models

import "time"

// Metadata keys injected by the ingestor.
const (
	MetaKeyFilename    = "filename"
	MetaKeyFileType    = "file_type"
	MetaKeyContentType = "content_type"
)

// DocumentRecord describes a document that has been persisted and identified.
// Records are created once per ingestion call and never mutated afterwards,
// apart from the Indexed flag maintained by the embedding reconciliation.
type DocumentRecord struct {
	ID          string    `json:"document_id" bson:"_id"`
	Filename    string    `json:"filename" bson:"filename"`
	StoragePath string    `json:"path" bson:"storage_path"`
	SizeBytes   int64     `json:"size" bson:"size_bytes"`
	Metadata    Metadata  `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Content     string    `json:"content,omitempty" bson:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Indexed     bool      `json:"indexed" bson:"indexed"`
}

// Chunk is a scored passage of text returned by the embedding index for a
// query. Score is an L2 distance: lower means more relevant. The pipeline
// ranks and deduplicates chunks but never mutates them.
type Chunk struct {
	DocumentID string   `json:"document_id"`
	ChunkID    string   `json:"chunk_id"`
	Text       string   `json:"text"`
	Score      float64  `json:"score"`
	Metadata   Metadata `json:"metadata,omitempty"`
}

// AnswerResult is the outcome of the question-answering pipeline.
// When Success is false, Answer is one of the fixed user-safe strings;
// raw model errors are never surfaced here.
type AnswerResult struct {
	Answer          string   `json:"answer"`
	Chunks          []Chunk  `json:"chunks"`
	ExpandedQueries []string `json:"expanded_queries"`
	Success         bool     `json:"success"`
}
