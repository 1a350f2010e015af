package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"pulpit/internal/logger"
	"pulpit/internal/middleware"
)

func TestContextHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewContextHandler(slog.NewJSONHandler(&buf, nil))
	l := slog.New(h)

	ctx := middleware.WithCorrelationID(context.Background(), "run-42")
	l.InfoContext(ctx, "ingest started")

	assert.Contains(t, buf.String(), `"correlation_id":"run-42"`)
}

func TestContextHandler_NoID(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewContextHandler(slog.NewJSONHandler(&buf, nil))
	l := slog.New(h)

	l.InfoContext(context.Background(), "plain")

	assert.NotContains(t, buf.String(), "correlation_id")
}
