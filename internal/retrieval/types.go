package retrieval

import (
	"context"
	"errors"
)

// ErrAdapterUnavailable marks a semantic-channel failure (embedder or
// vector index down or timed out). Retrieval degrades to the remaining
// channels instead of failing the query.
var ErrAdapterUnavailable = errors.New("vector adapter unavailable")

// SemanticHit is one nearest-neighbor match from the vector index.
type SemanticHit struct {
	ChunkID string
	Score   float64 // cosine certainty in [0,1]
}

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]SemanticHit, error)
}

// Embedder turns query text into a vector in the same space as the chunks.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is one ranked answer unit with everything a caller needs to cite it.
type Result struct {
	ChunkID         string   `json:"chunk_id"`
	DocumentID      string   `json:"document_id"`
	Title           string   `json:"title"`
	DateCode        string   `json:"date_code"`
	ParagraphNumber int      `json:"paragraph_number"`
	StartPage       int      `json:"start_page"`
	EndPage         int      `json:"end_page"`
	Text            string   `json:"text"`
	SeriesTags      []string `json:"series_tags,omitempty"`
	Score           float64  `json:"score"`
	MatchedStrategies []string `json:"matched_strategies"` // which strategies surfaced it
	ReferenceURL    string   `json:"reference_url"`
}
