package repository

import (
	"context"

	"ragapi/internal/model"
)

// ChunkRepository defines data access for document chunks. Chunks are
// write-once: they are created in a batch at ingest time and removed only
// together with their document.
type ChunkRepository interface {
	// CreateBatch inserts all chunks of a document in a single transaction.
	CreateBatch(ctx context.Context, chunks []model.Chunk) error

	// ListByDocument returns a document's chunks ordered by position.
	ListByDocument(ctx context.Context, documentID string) ([]model.Chunk, error)

	// ListAll streams every stored chunk, ordered by document then position.
	// Used to rebuild the in-memory index at startup.
	ListAll(ctx context.Context) ([]model.Chunk, error)

	// DeleteByDocument removes all chunks of a document. Returns nil when
	// there was nothing to delete.
	DeleteByDocument(ctx context.Context, documentID string) error
}
