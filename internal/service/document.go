package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ragapi/internal/index"
	"ragapi/internal/model"
	"ragapi/internal/repository"
	"ragapi/internal/storage"
	"ragapi/internal/textsplit"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("document not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
	ErrNoContent    = errors.New("document has no indexable content")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling knowledge-base documents.
type DocumentService interface {
	// Upload stores the content in object storage, splits it into chunks,
	// persists document and chunks, and indexes the chunks for retrieval.
	// The stored object is rolled back if any database save fails.
	// originalFilename is used only to extract the extension; the stored
	// object name is UUID + original extension.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document from storage, the database (chunks cascade)
	// and the in-memory index.
	Delete(ctx context.Context, id string) error

	// PresignDownload returns a time-limited URL for the raw stored document.
	PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error)

	// RebuildIndex loads every stored chunk into the in-memory index.
	// Called once at startup so retrieval survives restarts.
	RebuildIndex(ctx context.Context) (int, error)

	// IngestDirectory uploads every .txt file found under dir (recursively)
	// through the regular pipeline. A missing directory is not an error.
	IngestDirectory(ctx context.Context, dir string) (int, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	docs      repository.DocumentRepository
	chunks    repository.ChunkRepository
	idx       *index.Index
	chunkSize int
	maxBytes  int64
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	chunks repository.ChunkRepository,
	idx *index.Index,
	chunkSize int,
	maxUploadBytes int64,
) DocumentService {
	if chunkSize <= 0 {
		chunkSize = textsplit.DefaultChunkSize
	}
	return &documentService{
		store:     store,
		docs:      docs,
		chunks:    chunks,
		idx:       idx,
		chunkSize: chunkSize,
		maxBytes:  maxUploadBytes,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	// Buffer the content: it is needed twice, once for the object store and
	// once for chunking.
	limit := s.maxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}

	pieces := textsplit.Split(string(data), s.chunkSize)
	if len(pieces) == 0 {
		return nil, ErrNoContent
	}

	// Generate object name using UUID + extension
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", genName))

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          uuid.New().String(),
		Filename:    genName,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		ChunkCount:  len(pieces),
		CreatedAt:   now,
	}

	chunks := make([]model.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = model.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Position:   i,
			Content:    content,
			CreatedAt:  now,
		}
	}

	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
		// Rollback both the document row and the stored object.
		if delErr := s.docs.Delete(ctx, doc.ID); delErr != nil {
			return nil, fmt.Errorf("chunk save failed: %v; rollback document failed: %v", err, delErr)
		}
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("chunk save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("chunk save failed: %w", err)
	}

	for _, c := range chunks {
		s.idx.Add(c)
	}

	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from storage, the index and its rows.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	// Find the document to get its storage path
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// Document row deletion cascades to chunks.
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	s.idx.RemoveDocument(id)
	return nil
}

// PresignDownload returns a pre-signed URL for the stored object.
func (s *documentService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StoragePath, expiry)
}

// RebuildIndex loads all persisted chunks into the in-memory index.
func (s *documentService) RebuildIndex(ctx context.Context) (int, error) {
	chunks, err := s.chunks.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	for _, c := range chunks {
		s.idx.Add(c)
	}
	return len(chunks), nil
}
