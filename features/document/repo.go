package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresRepo is the Incremental Index Store: a durable projection of
// documents and chunks keyed by their stable identifiers.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) SaveDocument(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (id, date_code, title, page_count, content_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			page_count = EXCLUDED.page_count,
			content_hash = EXCLUDED.content_hash,
			status = EXCLUDED.status,
			updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, doc.ID, doc.DateCode, doc.Title, doc.PageCount, doc.ContentHash, doc.Status)
	if err != nil {
		return fmt.Errorf("%w: save document %s: %v", ErrStoreWrite, doc.ID, err)
	}
	return nil
}

func (r *PostgresRepo) GetDocument(ctx context.Context, id string) (*Document, error) {
	d := &Document{}
	query := `SELECT id, date_code, title, page_count, content_hash, status FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.DateCode, &d.Title, &d.PageCount, &d.ContentHash, &d.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PostgresRepo) ListDocuments(ctx context.Context) ([]Document, error) {
	query := `SELECT id, date_code, title, page_count, content_hash, status FROM documents ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.DateCode, &d.Title, &d.PageCount, &d.ContentHash, &d.Status); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) ContainsDocument(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) UpdateDocumentStatus(ctx context.Context, id, status string) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("%w: update status %s: %v", ErrStoreWrite, id, err)
	}
	return nil
}

func (r *PostgresRepo) DeleteDocument(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: delete document %s: %v", ErrStoreWrite, id, err)
	}
	return nil
}

func (r *PostgresRepo) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	c := &Chunk{}
	query := `SELECT id, document_id, paragraph_number, start_page, end_page, text, series_tags FROM chunks WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.DocumentID, &c.ParagraphNumber, &c.StartPage, &c.EndPage, &c.Text, pq.Array(&c.SeriesTags))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) ContainsChunk(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chunks WHERE id = $1)`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertChunk writes a chunk atomically: a single statement keyed on the
// chunk ID, safe to re-run (at-least-once ingestion semantics).
func (r *PostgresRepo) UpsertChunk(ctx context.Context, c Chunk) error {
	query := `INSERT INTO chunks (id, document_id, paragraph_number, start_page, end_page, text, series_tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			start_page = EXCLUDED.start_page,
			end_page = EXCLUDED.end_page,
			text = EXCLUDED.text,
			series_tags = EXCLUDED.series_tags,
			updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.DocumentID, c.ParagraphNumber, c.StartPage, c.EndPage, c.Text, pq.Array(c.SeriesTags))
	if err != nil {
		return fmt.Errorf("%w: upsert chunk %s: %v", ErrStoreWrite, c.ID, err)
	}
	return nil
}

func (r *PostgresRepo) GetChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error) {
	query := `SELECT id, document_id, paragraph_number, start_page, end_page, text, series_tags
		FROM chunks WHERE document_id = $1 ORDER BY paragraph_number ASC`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListChunks enumerates the full corpus in stable order; used to rebuild
// the lexical index on process start.
func (r *PostgresRepo) ListChunks(ctx context.Context) ([]Chunk, error) {
	query := `SELECT id, document_id, paragraph_number, start_page, end_page, text, series_tags
		FROM chunks ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *PostgresRepo) ListChunkIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM chunks ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepo) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM chunks WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("%w: delete chunks of %s: %v", ErrStoreWrite, documentID, err)
	}
	return nil
}

func (r *PostgresRepo) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ParagraphNumber, &c.StartPage, &c.EndPage, &c.Text, pq.Array(&c.SeriesTags)); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
