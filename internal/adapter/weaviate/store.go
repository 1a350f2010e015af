package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"pulpit/internal/retrieval"
	"pulpit/internal/vector"
	"pulpit/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// UpsertChunk replaces any object carrying the same chunkId before writing,
// so redelivered embed messages converge on a single object per chunk.
func (s *Store) UpsertChunk(ctx context.Context, chunk worker.VectorChunk) error {
	if err := s.deleteByChunkID(ctx, chunk.ChunkID); err != nil {
		return fmt.Errorf("clear stale vector for %s: %w", chunk.ChunkID, err)
	}

	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithProperties(map[string]interface{}{
			"chunkId":         chunk.ChunkID,
			"documentId":      chunk.DocumentID,
			"paragraphNumber": chunk.ParagraphNumber,
			"startPage":       chunk.StartPage,
			"endPage":         chunk.EndPage,
			"content":         chunk.Content,
			"seriesTags":      chunk.SeriesTags,
		}).
		WithVector(chunk.Vector).
		Do(ctx)
	return err
}

func (s *Store) deleteByChunkID(ctx context.Context, chunkID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"chunkId"}).
			WithOperator(filters.Equal).
			WithValueString(chunkID)).
		Do(ctx)
	return err
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	return err
}

// Query runs nearest-neighbor search and maps each object back to its chunk
// identity. Certainty comes back in [0,1] and is used as the semantic score.
func (s *Store) Query(ctx context.Context, queryVector []float32, k int) ([]retrieval.SemanticHit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(queryVector)

	fields := []graphql.Field{
		{Name: "chunkId"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []retrieval.SemanticHit
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if objects, ok := data[vector.ClassName].([]interface{}); ok {
			for _, o := range objects {
				props, ok := o.(map[string]interface{})
				if !ok {
					continue
				}

				hit := retrieval.SemanticHit{}
				if id, ok := props["chunkId"].(string); ok {
					hit.ChunkID = id
				}
				if hit.ChunkID == "" {
					continue
				}

				if additional, ok := props["_additional"].(map[string]interface{}); ok {
					switch c := additional["certainty"].(type) {
					case float64:
						hit.Score = c
					case string:
						// Older server versions serialize certainty as a string.
						if f, err := strconv.ParseFloat(c, 64); err == nil {
							hit.Score = f
						}
					}
				}

				hits = append(hits, hit)
			}
		}
	}
	return hits, nil
}
