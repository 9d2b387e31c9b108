package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragapi/internal/index"
	"ragapi/internal/model"
	"ragapi/internal/repository"
	repoMocks "ragapi/internal/repository/mocks"
	"ragapi/internal/storage"
	storeMocks "ragapi/internal/storage/mocks"
)

func newTestService(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) (DocumentService, *index.Index) {
	idx := index.New()
	return NewDocumentService(mStore, mDocs, mChunks, idx, 50, 1<<20), idx
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		contentType      string
		setupMocks       func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader
		wantErr          error
		wantErrMsg       string
		wantIndexed      int
	}{
		{
			name:             "happy path",
			originalFilename: "test.txt",
			contentType:      "text/plain",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				content := "First sentence about retrieval. Second sentence about indexing. Third sentence about generation."
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".txt")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "text/plain" && opt.Metadata["original-filename"] == "test.txt"
				})).Return(storage.ObjectInfo{
					Key:         "documents/uuid.txt",
					Size:        int64(len(content)),
					ContentType: "text/plain",
				}, nil)

				mDocs.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.StoragePath == "documents/uuid.txt" && doc.ChunkCount > 1
				})).Return(&model.Document{ID: "gen-id", ChunkCount: 3}, nil)

				mChunks.On("CreateBatch", ctx, mock.MatchedBy(func(chunks []model.Chunk) bool {
					if len(chunks) < 2 {
						return false
					}
					for i, c := range chunks {
						if c.Position != i || c.DocumentID == "" || c.Content == "" {
							return false
						}
					}
					return true
				})).Return(nil)

				return strings.NewReader(content)
			},
			wantIndexed: 3,
		},
		{
			name:             "validation error - nil reader",
			originalFilename: "test.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:             "no indexable content",
			originalFilename: "empty.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				return strings.NewReader("   ...  !!! ")
			},
			wantErr: ErrNoContent,
		},
		{
			name:             "storage error",
			originalFilename: "test.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return strings.NewReader("A sentence to store.")
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:             "document save error with successful rollback",
			originalFilename: "test.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mDocs.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return strings.NewReader("A sentence to store.")
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:             "document save error with failed rollback",
			originalFilename: "test.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mDocs.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return strings.NewReader("A sentence to store.")
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name:             "chunk save error rolls back document and object",
			originalFilename: "test.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mDocs *repoMocks.MockDocumentRepository, mChunks *repoMocks.MockChunkRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mDocs.On("Create", ctx, mock.Anything).Return(&model.Document{ID: "gen-id"}, nil)
				mChunks.On("CreateBatch", ctx, mock.Anything).Return(errors.New("chunk fail"))
				mDocs.On("Delete", ctx, mock.Anything).Return(nil)
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return strings.NewReader("A sentence to store.")
			},
			wantErrMsg: "chunk save failed: chunk fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mDocs := new(repoMocks.MockDocumentRepository)
			mChunks := new(repoMocks.MockChunkRepository)
			svc, idx := newTestService(mStore, mDocs, mChunks)

			r := tt.setupMocks(mStore, mDocs, mChunks)

			doc, err := svc.Upload(ctx, r, tt.originalFilename, tt.contentType)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				assert.Equal(t, tt.wantIndexed, idx.Len())
			}
			if tt.wantErr != nil || tt.wantErrMsg != "" {
				assert.Zero(t, idx.Len())
			}

			mStore.AssertExpectations(t)
			mDocs.AssertExpectations(t)
			mChunks.AssertExpectations(t)
		})
	}
}

func TestDocumentService_UploadTooLarge(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mDocs := new(repoMocks.MockDocumentRepository)
	mChunks := new(repoMocks.MockChunkRepository)
	svc := NewDocumentService(mStore, mDocs, mChunks, index.New(), 50, 16)

	_, err := svc.Upload(context.Background(), strings.NewReader("this content is longer than sixteen bytes."), "big.txt", "text/plain")
	assert.ErrorIs(t, err, ErrFileTooLarge)
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mDocs *repoMocks.MockDocumentRepository)
		wantErr    bool
		checkRes   func(t *testing.T, res *DocumentListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{
						Items: []model.Document{{ID: "1"}, {ID: "2"}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *DocumentListResult) {
				assert.Equal(t, 2, len(res.Items))
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mDocs *repoMocks.MockDocumentRepository) {
				mDocs.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mDocs := new(repoMocks.MockDocumentRepository)
			svc, _ := newTestService(nil, mDocs, nil)

			tt.setupMocks(mDocs)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mDocs.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	mDocs := new(repoMocks.MockDocumentRepository)
	svc, _ := newTestService(nil, mDocs, nil)

	t.Run("empty id", func(t *testing.T) {
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mDocs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows).Once()
		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("found", func(t *testing.T) {
		mDocs.On("FindByID", ctx, "id-1").Return(&model.Document{ID: "id-1"}, nil).Once()
		doc, err := svc.Get(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", doc.ID)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes storage, rows and index entries", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)
		svc, idx := newTestService(mStore, mDocs, nil)

		idx.Add(model.Chunk{ID: "c1", DocumentID: "id-1", Content: "some indexed content"})
		idx.Add(model.Chunk{ID: "c2", DocumentID: "other", Content: "unrelated content"})

		mDocs.On("FindByID", ctx, "id-1").Return(&model.Document{ID: "id-1", StoragePath: "documents/a.txt"}, nil)
		mStore.On("Delete", ctx, "documents/a.txt").Return(nil)
		mDocs.On("Delete", ctx, "id-1").Return(nil)

		require.NoError(t, svc.Delete(ctx, "id-1"))
		assert.Equal(t, 1, idx.Len())
		mStore.AssertExpectations(t)
		mDocs.AssertExpectations(t)
	})

	t.Run("storage failure keeps rows and index", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)
		svc, idx := newTestService(mStore, mDocs, nil)

		idx.Add(model.Chunk{ID: "c1", DocumentID: "id-1", Content: "some indexed content"})

		mDocs.On("FindByID", ctx, "id-1").Return(&model.Document{ID: "id-1", StoragePath: "documents/a.txt"}, nil)
		mStore.On("Delete", ctx, "documents/a.txt").Return(errors.New("storage fail"))

		err := svc.Delete(ctx, "id-1")
		assert.Error(t, err)
		assert.Equal(t, 1, idx.Len())
		mDocs.AssertNotCalled(t, "Delete", ctx, "id-1")
	})

	t.Run("not found", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		svc, _ := newTestService(nil, mDocs, nil)

		mDocs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
		assert.ErrorIs(t, svc.Delete(ctx, "missing"), ErrNotFound)
	})
}

func TestDocumentService_PresignDownload(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mDocs := new(repoMocks.MockDocumentRepository)
	svc, _ := newTestService(mStore, mDocs, nil)

	mDocs.On("FindByID", ctx, "id-1").Return(&model.Document{ID: "id-1", StoragePath: "documents/a.txt"}, nil)
	mStore.On("PresignGet", ctx, "documents/a.txt", 15*time.Minute).Return("https://minio/signed", nil)

	url, err := svc.PresignDownload(ctx, "id-1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://minio/signed", url)
}

func TestDocumentService_RebuildIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("loads all chunks", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		svc, idx := newTestService(nil, nil, mChunks)

		mChunks.On("ListAll", ctx).Return([]model.Chunk{
			{ID: "c1", DocumentID: "d1", Content: "alpha beta"},
			{ID: "c2", DocumentID: "d1", Content: "gamma delta"},
			{ID: "c3", DocumentID: "d2", Content: "epsilon zeta"},
		}, nil)

		n, err := svc.RebuildIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 3, idx.Len())
	})

	t.Run("repository error", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		svc, _ := newTestService(nil, nil, mChunks)

		mChunks.On("ListAll", ctx).Return(nil, errors.New("db fail"))
		_, err := svc.RebuildIndex(ctx)
		assert.Error(t, err)
	})
}
