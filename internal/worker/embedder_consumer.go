package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"pulpit/internal/middleware"
)

type EmbedderConsumer struct {
	embedder Embedder
	store    VectorStore
}

func NewEmbedderConsumer(e Embedder, s VectorStore) *EmbedderConsumer {
	return &EmbedderConsumer{
		embedder: e,
		store:    s,
	}
}

func (h *EmbedderConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ChunkEmbedPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.ChunkID == "" {
		slog.Error("poison pill: missing chunk_id, dropping")
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	// Prefix the embedding input with the citation header so semantically
	// similar passages from different sermons stay distinguishable.
	contextual := fmt.Sprintf("Title: %s\nDate: %s\nParagraph: %d\n---\n%s",
		payload.Title, payload.DateCode, payload.ParagraphNumber, payload.Content)

	embedCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	vector, err := h.embedder.Embed(embedCtx, contextual)
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err, "chunk_id", payload.ChunkID)
		return err // Retry
	}

	chunk := VectorChunk{
		ChunkID:         payload.ChunkID,
		DocumentID:      payload.DocumentID,
		ParagraphNumber: payload.ParagraphNumber,
		StartPage:       payload.StartPage,
		EndPage:         payload.EndPage,
		Content:         payload.Content,
		SeriesTags:      payload.SeriesTags,
		Vector:          vector,
	}

	if err := h.store.UpsertChunk(embedCtx, chunk); err != nil {
		slog.ErrorContext(ctx, "vector upsert failed", "error", err, "chunk_id", payload.ChunkID)
		return err // Retry
	}

	slog.InfoContext(ctx, "chunk vector stored", "chunk_id", payload.ChunkID)
	return nil
}
