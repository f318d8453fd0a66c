package embedding

import "context"

// Model is the interface for a text embedding model.
type Model interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
