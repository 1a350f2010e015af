package retrieval

import (
	"context"
	"regexp"
	"strings"

	"pulpit/features/document"
	"pulpit/internal/lexical"
	"pulpit/internal/metadata"
)

// Candidate is one chunk surfaced by a single channel, before fusion.
type Candidate struct {
	ChunkID  string
	Score    float64 // normalized to [0,1] within the channel
	Targeted bool    // channel claims the user asked for this document
}

// Strategy is one retrieval channel. Channels run independently; a failing
// channel degrades the answer instead of failing the query.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, query string, k int) ([]Candidate, error)
}

// --- Targeting ---

// queryDateCodeRe finds an explicit date-code reference in the query text.
var queryDateCodeRe = regexp.MustCompile(`\b(\d{2}-\d{4}[A-Za-z]?)\b`)

// DocumentLister is the slice of the store the targeting channel reads.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]document.Document, error)
	GetChunksByDocument(ctx context.Context, documentID string) ([]document.Chunk, error)
}

// TargetingStrategy detects when a query names a specific sermon, either by
// date code or by containing the full title, and surfaces that document's
// chunks ahead of everything else.
type TargetingStrategy struct {
	store DocumentLister
}

func NewTargetingStrategy(store DocumentLister) *TargetingStrategy {
	return &TargetingStrategy{store: store}
}

func (s *TargetingStrategy) Name() string { return "targeting" }

func (s *TargetingStrategy) Candidates(ctx context.Context, query string, k int) ([]Candidate, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	targeted := matchTargets(query, docs)
	if len(targeted) == 0 {
		return nil, nil
	}

	var out []Candidate
	for _, id := range targeted {
		chunks, err := s.store.GetChunksByDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			out = append(out, Candidate{ChunkID: c.ID, Score: 1.0, Targeted: true})
		}
	}
	return out, nil
}

// matchTargets returns the IDs of documents the query explicitly names.
// A match is either the document's date code appearing as a token, or every
// token of the document's title appearing in the query.
func matchTargets(query string, docs []document.Document) []string {
	var ids []string

	codes := map[string]bool{}
	for _, m := range queryDateCodeRe.FindAllString(query, -1) {
		codes[strings.ToUpper(m)] = true
	}

	queryTokens := tokenSet(metadata.NormalizeTitle(query))

	for _, d := range docs {
		if codes[strings.ToUpper(d.ID)] {
			ids = append(ids, d.ID)
			continue
		}

		titleTokens := strings.Fields(metadata.NormalizeTitle(d.Title))
		if len(titleTokens) == 0 {
			continue
		}
		all := true
		for _, tok := range titleTokens {
			if !queryTokens[tok] {
				all = false
				break
			}
		}
		if all {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// --- Lexical ---

type LexicalStrategy struct {
	index *lexical.Index
}

func NewLexicalStrategy(index *lexical.Index) *LexicalStrategy {
	return &LexicalStrategy{index: index}
}

func (s *LexicalStrategy) Name() string { return "lexical" }

func (s *LexicalStrategy) Candidates(ctx context.Context, query string, k int) ([]Candidate, error) {
	hits := s.index.Query(query, k)
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, Candidate{ChunkID: h.ChunkID, Score: h.Score})
	}
	return out, nil
}

// --- Semantic ---

type SemanticStrategy struct {
	embedder Embedder
	searcher VectorSearcher
}

func NewSemanticStrategy(e Embedder, v VectorSearcher) *SemanticStrategy {
	return &SemanticStrategy{embedder: e, searcher: v}
}

func (s *SemanticStrategy) Name() string { return "semantic" }

func (s *SemanticStrategy) Candidates(ctx context.Context, query string, k int) ([]Candidate, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.searcher.Query(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, Candidate{ChunkID: h.ChunkID, Score: h.Score})
	}
	return out, nil
}
