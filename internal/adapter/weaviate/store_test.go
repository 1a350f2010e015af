package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "pulpit/internal/adapter/weaviate"
	"pulpit/internal/worker"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func TestStore_UpsertChunk(t *testing.T) {
	var sawDelete, sawCreate bool

	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/meta":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
		case "/v1/batch/objects":
			sawDelete = true
			assert.Equal(t, "DELETE", r.Method)
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{})
		case "/v1/objects":
			sawCreate = true
			assert.Equal(t, "POST", r.Method)

			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			props := body["properties"].(map[string]interface{})
			assert.Equal(t, "62-0909E:0001", props["chunkId"])
			assert.Equal(t, "62-0909E", props["documentId"])
			assert.Equal(t, "Let us bow our heads.", props["content"])

			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "1"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.UpsertChunk(context.Background(), worker.VectorChunk{
		ChunkID:         "62-0909E:0001",
		DocumentID:      "62-0909E",
		ParagraphNumber: 1,
		Content:         "Let us bow our heads.",
		Vector:          []float32{0.1, 0.2},
	})

	assert.NoError(t, err)
	assert.True(t, sawDelete, "stale object should be cleared first")
	assert.True(t, sawCreate)
}

func TestStore_DeleteByDocument(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.DeleteByDocument(context.Background(), "62-0909E")
	assert.NoError(t, err)
}

func TestStore_Query(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"SermonChunk": []interface{}{
						map[string]interface{}{
							"chunkId": "62-0909E:0004",
							"_additional": map[string]interface{}{
								"certainty": 0.93,
							},
						},
						map[string]interface{}{
							"chunkId": "63-0317M:0012",
							"_additional": map[string]interface{}{
								"certainty": "0.88",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	hits, err := store.Query(context.Background(), []float32{0.1, 0.2}, 10)

	assert.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, "62-0909E:0004", hits[0].ChunkID)
	assert.InDelta(t, 0.93, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.88, hits[1].Score, 1e-9)
}

func TestStore_Query_SkipsObjectsWithoutIdentity(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"SermonChunk": []interface{}{
						map[string]interface{}{
							"_additional": map[string]interface{}{"certainty": 0.9},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	hits, err := store.Query(context.Background(), []float32{0.1}, 5)

	assert.NoError(t, err)
	assert.Empty(t, hits)
}
