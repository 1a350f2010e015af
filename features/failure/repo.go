package failure

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]Record, error)
	DeleteBySource(ctx context.Context, source string) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, rec *Record) error {
	query := `INSERT INTO ingest_failures (document_id, source, stage, reason) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, rec.DocumentID, rec.Source, rec.Stage, rec.Reason).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, document_id, source, stage, reason, created_at FROM ingest_failures ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.Source, &rec.Stage, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteBySource clears stale records once the same file ingests cleanly.
func (r *PostgresRepo) DeleteBySource(ctx context.Context, source string) error {
	query := `DELETE FROM ingest_failures WHERE source = $1`
	_, err := r.db.ExecContext(ctx, query, source)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingest_failures`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
