package splitter

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"docqa/internal/models"
)

// TokenSplitter splits document text into overlapping chunks by token count.
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	tokenizer    *tiktoken.Tiktoken
}

// NewTokenSplitter creates a TokenSplitter.
// "cl100k_base" is the encoding used by the gpt-4 family and the
// text-embedding models, so chunk sizes line up with the embedder's view.
func NewTokenSplitter(chunkSize, chunkOverlap int) (*TokenSplitter, error) {
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}

	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &TokenSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		tokenizer:    tke,
	}, nil
}

// Split breaks text into chunks of at most ChunkSize tokens, consecutive
// chunks sharing ChunkOverlap tokens. Metadata is copied onto every chunk
// with the chunk number added.
func (s *TokenSplitter) Split(documentID, text string, meta models.Metadata) []models.Chunk {
	tokens := s.tokenizer.Encode(text, nil, nil)
	step := s.ChunkSize - s.ChunkOverlap

	var chunks []models.Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + s.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunkMeta := meta.Merge(models.Metadata{
			"chunk_number": models.Number(float64(len(chunks) + 1)),
		})

		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			ChunkID:    uuid.New().String(),
			Text:       s.tokenizer.Decode(tokens[start:end]),
			Metadata:   chunkMeta,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks
}
