package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulpit/features/document"
	"pulpit/internal/lexical"
)

type memLister struct {
	docs   []document.Document
	chunks map[string][]document.Chunk
}

func (m *memLister) ListDocuments(ctx context.Context) ([]document.Document, error) {
	return m.docs, nil
}

func (m *memLister) GetChunksByDocument(ctx context.Context, documentID string) ([]document.Chunk, error) {
	return m.chunks[documentID], nil
}

func targetingFixture() *memLister {
	return &memLister{
		docs: []document.Document{
			{ID: "62-0909E", Title: "In His Presence"},
			{ID: "63-0318", Title: "The First Seal"},
			{ID: "60-0515", Title: "Adoption"},
		},
		chunks: map[string][]document.Chunk{
			"62-0909E": {
				{ID: "62-0909E:0001", DocumentID: "62-0909E", ParagraphNumber: 1},
				{ID: "62-0909E:0002", DocumentID: "62-0909E", ParagraphNumber: 2},
			},
			"63-0318": {
				{ID: "63-0318:0001", DocumentID: "63-0318", ParagraphNumber: 1},
			},
		},
	}
}

func TestTargeting_TitleContainedInQuery(t *testing.T) {
	s := NewTargetingStrategy(targetingFixture())

	cands, err := s.Candidates(context.Background(), "Summarize In His Presence for me", 10)

	require.NoError(t, err)
	require.Len(t, cands, 2)
	for _, c := range cands {
		assert.True(t, c.Targeted)
	}
}

func TestTargeting_DateCodeInQuery(t *testing.T) {
	s := NewTargetingStrategy(targetingFixture())

	cands, err := s.Candidates(context.Background(), "what was preached on 63-0318?", 10)

	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "63-0318:0001", cands[0].ChunkID)
}

func TestTargeting_PartialTitleDoesNotMatch(t *testing.T) {
	s := NewTargetingStrategy(targetingFixture())

	// "presence" alone is a topic word, not a document reference.
	cands, err := s.Candidates(context.Background(), "what does presence mean", 10)

	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestTargeting_CaseAndPunctuationInsensitive(t *testing.T) {
	s := NewTargetingStrategy(targetingFixture())

	cands, err := s.Candidates(context.Background(), "summarize 'the first seal'", 10)

	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "63-0318:0001", cands[0].ChunkID)
}

func TestLexicalStrategy_WrapsIndexHits(t *testing.T) {
	ix := lexical.NewIndex()
	ix.Build([]document.Chunk{
		{ID: "62-0909E:0002", Text: "Moses stood before the burning bush on holy ground."},
		{ID: "60-0515:0001", Text: "We are adopted as sons through placement."},
	})

	s := NewLexicalStrategy(ix)
	cands, err := s.Candidates(context.Background(), "burning bush", 5)

	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, "62-0909E:0002", cands[0].ChunkID)
	assert.False(t, cands[0].Targeted)
}
