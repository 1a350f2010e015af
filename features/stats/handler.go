package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"pulpit/internal/middleware"
)

type DocumentRepo interface {
	CountDocuments(ctx context.Context) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

type FailureRepo interface {
	Count(ctx context.Context) (int, error)
}

type LexicalIndex interface {
	Len() int
}

type Handler struct {
	docs     DocumentRepo
	failures FailureRepo
	index    LexicalIndex
}

func NewHandler(d DocumentRepo, f FailureRepo, ix LexicalIndex) *Handler {
	return &Handler{docs: d, failures: f, index: ix}
}

type StatsResponse struct {
	Documents      int `json:"documents"`
	Chunks         int `json:"chunks"`
	IndexedChunks  int `json:"indexed_chunks"`
	IngestFailures int `json:"ingest_failures"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dCount, err := h.docs.CountDocuments(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	cCount, err := h.docs.CountChunks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	fCount, err := h.failures.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count ingest failures", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count ingest failures", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Documents:      dCount,
		Chunks:         cCount,
		IndexedChunks:  h.index.Len(),
		IngestFailures: fCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
