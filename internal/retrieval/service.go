package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"pulpit/features/document"
	"pulpit/internal/series"
)

// Weights tune rank fusion. They are read once at startup from config;
// changing them never changes which chunks exist, only their order.
type Weights struct {
	Lexical     float64
	Semantic    float64
	SeriesBoost float64
	TopK        int
}

// ChunkReader resolves candidate IDs back to full chunks and their
// documents for citation.
type ChunkReader interface {
	GetChunk(ctx context.Context, id string) (*document.Chunk, error)
	GetDocument(ctx context.Context, id string) (*document.Document, error)
}

type Service struct {
	targeting Strategy
	lexical   Strategy
	semantic  Strategy
	store     ChunkReader
	registry  *series.Registry
	weights   Weights
	semTimeout time.Duration
	logger    *QueryLogger
}

func NewService(targeting, lexical, semantic Strategy, store ChunkReader, registry *series.Registry, weights Weights, semanticTimeout time.Duration, logger *QueryLogger) *Service {
	if weights.TopK < 1 {
		weights.TopK = 10
	}
	return &Service{
		targeting: targeting,
		lexical:   lexical,
		semantic:  semantic,
		store:     store,
		registry:  registry,
		weights:   weights,
		semTimeout: semanticTimeout,
		logger:    logger,
	}
}

// fused accumulates one chunk's evidence across channels.
type fused struct {
	chunkID  string
	lexical  float64
	semantic float64
	targeted bool
	boosted  bool
	channels []string
}

// Retrieve runs every channel, fuses the candidates, and returns up to k
// ranked, citable results. Identical query and index state always produce
// the identical ranking.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	start := time.Now()
	if k < 1 || k > s.weights.TopK {
		k = s.weights.TopK
	}

	byID := map[string]*fused{}
	accumulate := func(name string, cands []Candidate, set func(f *fused, score float64)) {
		for _, c := range cands {
			f, ok := byID[c.ChunkID]
			if !ok {
				f = &fused{chunkID: c.ChunkID}
				byID[c.ChunkID] = f
			}
			set(f, c.Score)
			if c.Targeted {
				f.targeted = true
			}
			f.channels = append(f.channels, name)
		}
	}

	// Targeting and lexical are local and must succeed; semantic is remote
	// and only degrades the result set when it fails.
	targetCands, err := s.targeting.Candidates(ctx, query, s.weights.TopK)
	if err != nil {
		return nil, fmt.Errorf("targeting channel: %w", err)
	}
	accumulate(s.targeting.Name(), targetCands, func(f *fused, score float64) {})

	lexCands, err := s.lexical.Candidates(ctx, query, s.weights.TopK)
	if err != nil {
		return nil, fmt.Errorf("lexical channel: %w", err)
	}
	accumulate(s.lexical.Name(), lexCands, func(f *fused, score float64) { f.lexical = score })

	semCtx, cancel := context.WithTimeout(ctx, s.semTimeout)
	semCands, err := s.semantic.Candidates(semCtx, query, s.weights.TopK)
	cancel()
	degraded := false
	if err != nil {
		degraded = true
		slog.WarnContext(ctx, "semantic channel degraded",
			"error", fmt.Errorf("%w: %v", ErrAdapterUnavailable, err))
	} else {
		accumulate(s.semantic.Name(), semCands, func(f *fused, score float64) { f.semantic = score })
	}

	seriesKey, seriesHit := s.registry.Detect(query)

	// Resolve candidates against the store. Chunks the store no longer has
	// (stale vector entries after a delete) are dropped, never fabricated.
	results := make([]Result, 0, len(byID))
	order := make([]*fused, 0, len(byID))
	for _, f := range byID {
		order = append(order, f)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].chunkID < order[j].chunkID })

	docCache := map[string]*document.Document{}
	for _, f := range order {
		chunk, err := s.store.GetChunk(ctx, f.chunkID)
		if err != nil {
			return nil, fmt.Errorf("resolve chunk %s: %w", f.chunkID, err)
		}
		if chunk == nil {
			slog.DebugContext(ctx, "dropping unresolvable candidate", "chunk_id", f.chunkID)
			continue
		}

		doc, ok := docCache[chunk.DocumentID]
		if !ok {
			doc, err = s.store.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				return nil, fmt.Errorf("resolve document %s: %w", chunk.DocumentID, err)
			}
			docCache[chunk.DocumentID] = doc
		}
		if doc == nil {
			continue
		}

		score := s.weights.Lexical*f.lexical + s.weights.Semantic*f.semantic
		if seriesHit && containsTag(chunk.SeriesTags, seriesKey) {
			score += s.weights.SeriesBoost
			f.boosted = true
			f.channels = append(f.channels, "series")
		}

		results = append(results, Result{
			ChunkID:         chunk.ID,
			DocumentID:      chunk.DocumentID,
			Title:           doc.Title,
			DateCode:        doc.DateCode,
			ParagraphNumber: chunk.ParagraphNumber,
			StartPage:       chunk.StartPage,
			EndPage:         chunk.EndPage,
			Text:            chunk.Text,
			SeriesTags:      chunk.SeriesTags,
			Score:           score,
			MatchedStrategies: dedupe(f.channels),
			ReferenceURL:    ReferenceURL(doc.DateCode),
		})
	}

	targetedSet := map[string]bool{}
	for _, f := range order {
		if f.targeted {
			targetedSet[f.chunkID] = true
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := targetedSet[results[i].ChunkID], targetedSet[results[j].ChunkID]
		if ti != tj {
			return ti
		}
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}

	if s.logger != nil {
		s.logger.Log(ctx, QueryLogEntry{
			Query:      query,
			NumResults: len(results),
			Degraded:   degraded,
			Duration:   time.Since(start),
		})
	}
	return results, nil
}

// ReferenceURL builds the public deep link for a sermon date code.
func ReferenceURL(dateCode string) string {
	return fmt.Sprintf("https://www.messagehub.info/en/read.do?ref_num=%s", dateCode)
}

func containsTag(tags []string, key string) bool {
	for _, t := range tags {
		if t == key {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
