// Package lexical holds the in-process BM25 index over chunk text. The
// index is rebuilt from the durable store on startup and after ingestion;
// it is never persisted itself.
package lexical

import (
	"sort"
	"sync"

	"github.com/chriscorrea/bm25md"

	"pulpit/features/document"
)

// Hit is one lexical match. Score is normalized to [0,1] within the result
// set so it can be fused with semantic similarities on a common scale.
type Hit struct {
	ChunkID string
	Score   float64
}

type Index struct {
	mu     sync.RWMutex
	corpus *bm25md.Corpus
	ids    []string // positional index -> chunk ID
}

func NewIndex() *Index {
	return &Index{corpus: bm25md.NewCorpus()}
}

// Build replaces the index contents with the given chunks. Chunks must
// arrive in a stable order so document IDs are reproducible across rebuilds.
func (ix *Index) Build(chunks []document.Chunk) {
	corpus := bm25md.NewCorpus()
	parser := bm25md.NewMarkdownFieldParser()
	ids := make([]string, 0, len(chunks))

	for i, c := range chunks {
		corpus.AddDocument(bm25md.Document{
			ID:       i,
			Fields:   parser.ParseDocument(c.Text),
			Original: c.Text,
		})
		ids = append(ids, c.ID)
	}

	ix.mu.Lock()
	ix.corpus = corpus
	ix.ids = ids
	ix.mu.Unlock()
}

// Len reports how many chunks are indexed.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// Query returns up to k hits ordered by descending score, ties broken by
// ascending chunk ID so identical inputs always yield identical output.
func (ix *Index) Query(text string, k int) []Hit {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.ids) == 0 || k < 1 {
		return nil
	}

	results := ix.corpus.Search(text, k)
	if len(results) == 0 {
		return nil
	}

	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		if r.Document.ID < 0 || r.Document.ID >= len(ix.ids) {
			continue
		}
		score := 0.0
		if maxScore > 0 {
			score = r.Score / maxScore
		}
		hits = append(hits, Hit{ChunkID: ix.ids[r.Document.ID], Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits
}
