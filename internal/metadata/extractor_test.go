package metadata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pulpit/internal/metadata"
)

func TestExtract_FromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantID   string
		wantTitle string
	}{
		{"Evening session", "62-0909E In His Presence.txt", "62-0909E", "In His Presence"},
		{"Morning session", "63-0317M God Hiding Himself In Simplicity.txt", "63-0317M", "God Hiding Himself In Simplicity"},
		{"No session letter", "63-0318 The First Seal.txt", "63-0318", "The First Seal"},
		{"With directory", "/archive/63-0318 The First Seal.txt", "63-0318", "The First Seal"},
		{"Code only", "63-0318.txt", "63-0318", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := metadata.Extract(tt.filename, "")
			assert.NoError(t, err)
			assert.Equal(t, tt.wantID, m.DocumentID)
			assert.Equal(t, tt.wantID, m.DateCode)
			assert.Equal(t, tt.wantTitle, m.Title)
		})
	}
}

func TestExtract_HeaderFallback(t *testing.T) {
	header := "THE FIRST SEAL\nPreached on 63-0318\nJeffersonville, Indiana"

	m, err := metadata.Extract("first_seal_scan.txt", header)
	assert.NoError(t, err)
	assert.Equal(t, "63-0318", m.DocumentID)
	assert.Equal(t, "THE FIRST SEAL", m.Title)
}

func TestExtract_HeaderFallback_TitleFromFilename(t *testing.T) {
	m, err := metadata.Extract("the-first-seal.txt", "63-0318")
	assert.NoError(t, err)
	assert.Equal(t, "63-0318", m.DocumentID)
	assert.Equal(t, "the-first-seal", m.Title)
}

func TestExtract_NoIdentity(t *testing.T) {
	_, err := metadata.Extract("notes.txt", "just some text without a code")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrExtraction))
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "in his presence", metadata.NormalizeTitle("In His Presence"))
	assert.Equal(t, "questions and answers on the seals", metadata.NormalizeTitle("Questions And Answers On The Seals!"))
}
