package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulpit/internal/middleware"
)

func TestQueryLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(&buf)

	ctx := middleware.WithCorrelationID(context.Background(), "corr-123")
	l.Log(ctx, QueryLogEntry{
		Query:      "seven seals",
		NumResults: 5,
		Duration:   42 * time.Millisecond,
	})

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "seven seals", entry.Query)
	assert.Equal(t, 5, entry.NumResults)
	assert.Equal(t, int64(42), entry.LatencyMs)
	assert.Equal(t, "corr-123", entry.CorrelationID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestQueryLogger_AppendsOneLinePerQuery(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(&buf)

	l.Log(context.Background(), QueryLogEntry{Query: "first"})
	l.Log(context.Background(), QueryLogEntry{Query: "second"})

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, 2, lines)
}
