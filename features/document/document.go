package document

import (
	"context"
	"errors"
	"fmt"
)

// Document is one source transcript file. Immutable after ingestion and
// identified by its date code.
type Document struct {
	ID          string `json:"id"` // date code, e.g. "62-0909E"
	DateCode    string `json:"date_code"`
	Title       string `json:"title"`
	PageCount   int    `json:"page_count"`
	ContentHash string `json:"-"`
	Status      string `json:"status"` // in_progress, completed, failed
}

// Chunk is the retrievable unit, derived 1:1 from a source paragraph.
type Chunk struct {
	ID              string   `json:"id"`
	DocumentID      string   `json:"document_id"`
	ParagraphNumber int      `json:"paragraph_number"`
	StartPage       int      `json:"start_page"`
	EndPage         int      `json:"end_page"`
	Text            string   `json:"text"`
	SeriesTags      []string `json:"series_tags"`
}

// ChunkID derives the stable chunk identifier. It is a pure function of
// document identity and paragraph position, never of content or insertion
// order, so the same logical paragraph maps to the same ID across runs,
// machines and partial re-ingestions.
func ChunkID(documentID string, paragraphNumber int) string {
	return fmt.Sprintf("%s:%04d", documentID, paragraphNumber)
}

// ErrStoreWrite marks persistence failures. Ingestion of the affected
// document aborts and is retried on the next run; other documents are
// unaffected.
var ErrStoreWrite = errors.New("index store write failed")

// ErrNoDocuments means the source directory yielded nothing ingestible.
var ErrNoDocuments = errors.New("no documents found")

type Repository interface {
	// Documents
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	ContainsDocument(ctx context.Context, id string) (bool, error)
	UpdateDocumentStatus(ctx context.Context, id, status string) error
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int, error)

	// Chunks
	GetChunk(ctx context.Context, id string) (*Chunk, error) // (nil, nil) when absent
	ContainsChunk(ctx context.Context, id string) (bool, error)
	UpsertChunk(ctx context.Context, c Chunk) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)
	ListChunks(ctx context.Context) ([]Chunk, error)
	ListChunkIDs(ctx context.Context) ([]string, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	CountChunks(ctx context.Context) (int, error)
}

// VectorStore is the slice of the vector index the ingestion path needs
// directly: bulk invalidation on force re-ingest and delete. Upserts go
// through the embed queue instead.
type VectorStore interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
