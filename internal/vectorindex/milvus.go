package vectorindex

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"docqa/internal/models"
	"docqa/pkg/logger"
)

// Schema fields of the chunk collection.
const (
	FieldChunkID    = "chunk_id"
	FieldDocumentID = "document_id"
	FieldText       = "text"
	FieldEmbedding  = "embedding"
)

const (
	maxVarCharLength = 65535
	maxIDLength      = 64
	ivfNlist         = 128
	searchNprobe     = 10
)

// MilvusChunkStore persists embedded chunks in a Milvus collection and runs
// L2 similarity searches over them.
type MilvusChunkStore struct {
	client     client.Client
	collection string
	dim        int
	log        *logger.Logger
}

// NewMilvusChunkStore connects to Milvus and ensures the chunk collection
// exists and is loaded.
func NewMilvusChunkStore(ctx context.Context, address, collection string, dim int, log *logger.Logger) (*MilvusChunkStore, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus at %s: %w", address, err)
	}

	s := &MilvusChunkStore{
		client:     c,
		collection: collection,
		dim:        dim,
		log:        log,
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the Milvus connection.
func (s *MilvusChunkStore) Close() error {
	return s.client.Close()
}

func (s *MilvusChunkStore) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}

	if !has {
		schema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("embedded document chunks").
			WithField(entity.NewField().WithName(FieldChunkID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldDocumentID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength)).
			WithField(entity.NewField().WithName(FieldText).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxVarCharLength)).
			WithField(entity.NewField().WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.L2, ivfNlist)
		if err != nil {
			return fmt.Errorf("failed to build index config: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", FieldEmbedding, err)
		}
		s.log.Info(fmt.Sprintf("Created Milvus collection '%s' (dim=%d)", s.collection, s.dim))
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", s.collection, err)
	}
	return nil
}

// InsertChunks writes one batch of chunks and their embedding vectors.
// chunks and vectors are parallel slices.
func (s *MilvusChunkStore) InsertChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	chunkIDs := make([]string, len(chunks))
	docIDs := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ChunkID
		docIDs[i] = c.DocumentID
		texts[i] = c.Text
	}

	chunkIDCol := entity.NewColumnVarChar(FieldChunkID, chunkIDs)
	docIDCol := entity.NewColumnVarChar(FieldDocumentID, docIDs)
	textCol := entity.NewColumnVarChar(FieldText, texts)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, s.dim, vectors)

	if _, err := s.client.Insert(ctx, s.collection, "", chunkIDCol, docIDCol, textCol, embeddingCol); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to flush collection %s: %w", s.collection, err)
	}
	return nil
}

// SearchChunks runs an L2 similarity search and returns the matching chunks
// with their distances.
func (s *MilvusChunkStore) SearchChunks(ctx context.Context, vector []float32, topK int) ([]models.Chunk, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(searchNprobe)
	results, err := s.client.Search(
		ctx, s.collection, []string{}, "",
		[]string{FieldChunkID, FieldDocumentID, FieldText},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, entity.L2, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", s.collection, err)
	}

	var chunks []models.Chunk
	for _, res := range results {
		findColumn := func(name string) *entity.ColumnVarChar {
			for _, field := range res.Fields {
				if field.Name() == name {
					if col, ok := field.(*entity.ColumnVarChar); ok {
						return col
					}
				}
			}
			return nil
		}

		chunkIDCol := findColumn(FieldChunkID)
		docIDCol := findColumn(FieldDocumentID)
		textCol := findColumn(FieldText)
		if chunkIDCol == nil || docIDCol == nil || textCol == nil {
			s.log.Warn("Search result is missing expected fields, skipping")
			continue
		}

		for i := 0; i < res.ResultCount; i++ {
			chunks = append(chunks, models.Chunk{
				DocumentID: docIDCol.Data()[i],
				ChunkID:    chunkIDCol.Data()[i],
				Text:       textCol.Data()[i],
				Score:      float64(res.Scores[i]),
			})
		}
	}

	return chunks, nil
}

var _ ChunkStore = (*MilvusChunkStore)(nil)
