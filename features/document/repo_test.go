package document

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepo(db), mock
}

func TestSaveDocument_Upsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WithArgs("62-0909E", "62-0909E", "In His Presence", 24, "abc123", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveDocument(context.Background(), &Document{
		ID: "62-0909E", DateCode: "62-0909E", Title: "In His Presence",
		PageCount: 24, ContentHash: "abc123", Status: "in_progress",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDocument_WrapsStoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WillReturnError(errors.New("connection refused"))

	err := repo.SaveDocument(context.Background(), &Document{ID: "62-0909E"})

	assert.True(t, errors.Is(err, ErrStoreWrite))
}

func TestGetDocument_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date_code, title, page_count, content_hash, status FROM documents WHERE id = $1`)).
		WithArgs("99-9999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_code", "title", "page_count", "content_hash", "status"}))

	doc, err := repo.GetDocument(context.Background(), "99-9999")

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetDocument_Found(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "date_code", "title", "page_count", "content_hash", "status"}).
		AddRow("62-0909E", "62-0909E", "In His Presence", 24, "abc123", "completed")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date_code, title, page_count, content_hash, status FROM documents WHERE id = $1`)).
		WithArgs("62-0909E").
		WillReturnRows(rows)

	doc, err := repo.GetDocument(context.Background(), "62-0909E")

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "In His Presence", doc.Title)
	assert.Equal(t, "completed", doc.Status)
}

func TestUpsertChunk(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chunks`)).
		WithArgs("62-0909E:0001", "62-0909E", 1, 1, 2, "Let us bow our heads.", pq.Array([]string{})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertChunk(context.Background(), Chunk{
		ID: "62-0909E:0001", DocumentID: "62-0909E", ParagraphNumber: 1,
		StartPage: 1, EndPage: 2, Text: "Let us bow our heads.", SeriesTags: []string{},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertChunk_WrapsStoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chunks`)).
		WillReturnError(errors.New("disk full"))

	err := repo.UpsertChunk(context.Background(), Chunk{ID: "62-0909E:0001"})

	assert.True(t, errors.Is(err, ErrStoreWrite))
	assert.Contains(t, err.Error(), "62-0909E:0001")
}

func TestGetChunk_NotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, document_id, paragraph_number, start_page, end_page, text, series_tags FROM chunks WHERE id = $1`)).
		WithArgs("62-0909E:0099").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "paragraph_number", "start_page", "end_page", "text", "series_tags"}))

	chunk, err := repo.GetChunk(context.Background(), "62-0909E:0099")

	require.NoError(t, err)
	assert.Nil(t, chunk)
}

func TestGetChunksByDocument_OrderedByParagraph(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "document_id", "paragraph_number", "start_page", "end_page", "text", "series_tags"}).
		AddRow("63-0317M:0001", "63-0317M", 1, 1, 1, "First paragraph.", "{seven seals}").
		AddRow("63-0317M:0002", "63-0317M", 2, 1, 2, "Second paragraph.", "{seven seals}")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM chunks WHERE document_id = $1 ORDER BY paragraph_number ASC`)).
		WithArgs("63-0317M").
		WillReturnRows(rows)

	chunks, err := repo.GetChunksByDocument(context.Background(), "63-0317M")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].ParagraphNumber)
	assert.Equal(t, []string{"seven seals"}, chunks[0].SeriesTags)
}

func TestListChunkIDs(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id"}).
		AddRow("62-0909E:0001").
		AddRow("62-0909E:0002")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM chunks ORDER BY id ASC`)).
		WillReturnRows(rows)

	ids, err := repo.ListChunkIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"62-0909E:0001", "62-0909E:0002"}, ids)
}

func TestDeleteChunksByDocument(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM chunks WHERE document_id = $1`)).
		WithArgs("62-0909E").
		WillReturnResult(sqlmock.NewResult(0, 6))

	require.NoError(t, repo.DeleteChunksByDocument(context.Background(), "62-0909E"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountDocumentsAndChunks(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM documents`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM chunks`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(412))

	docs, err := repo.CountDocuments(context.Background())
	require.NoError(t, err)
	chunks, err := repo.CountChunks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, docs)
	assert.Equal(t, 412, chunks)
}
