package postgres

import (
	"context"
	"database/sql"

	"ragapi/internal/model"
	"ragapi/internal/repository"
)

// ChunkPostgres is a PostgreSQL implementation of repository.ChunkRepository.
type ChunkPostgres struct {
	db *sql.DB
}

// NewChunkPostgres creates a new ChunkPostgres repository.
func NewChunkPostgres(db *sql.DB) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

var _ repository.ChunkRepository = (*ChunkPostgres)(nil)

// CreateBatch inserts all chunks in one transaction so a document is never
// persisted with a partial chunk set.
func (r *ChunkPostgres) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO chunks (id, document_id, position, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Position, c.Content, c.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByDocument returns a document's chunks ordered by position.
func (r *ChunkPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, position, content, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ListAll returns every stored chunk, ordered by document then position.
func (r *ChunkPostgres) ListAll(ctx context.Context) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, position, content, created_at
		FROM chunks
		ORDER BY document_id ASC, position ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteByDocument removes all chunks of a document.
func (r *ChunkPostgres) DeleteByDocument(ctx context.Context, documentID string) error {
	const q = `DELETE FROM chunks WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, q, documentID)
	return err
}

func scanChunks(rows *sql.Rows) ([]model.Chunk, error) {
	items := make([]model.Chunk, 0)
	for rows.Next() {
		var c model.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
