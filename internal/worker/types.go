package worker

import "context"

// VectorChunk is what the embed worker upserts into the vector index.
type VectorChunk struct {
	ChunkID         string
	DocumentID      string
	ParagraphNumber int
	StartPage       int
	EndPage         int
	Content         string
	SeriesTags      []string
	Vector          []float32
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	UpsertChunk(ctx context.Context, chunk VectorChunk) error
}
