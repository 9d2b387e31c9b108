package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ragapi/internal/index"
	"ragapi/internal/llm"
	"ragapi/internal/model"
)

// ErrQueryRequired is returned when a search or question is blank.
var ErrQueryRequired = errors.New("query is required")

// QueryService exposes retrieval and retrieval-augmented generation.
type QueryService interface {
	// Search returns the chunks most similar to the query, scored and ordered.
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)

	// Ask retrieves the topK most relevant chunks and asks the generator for
	// an answer grounded in them. With an empty index the question is sent
	// without context.
	Ask(ctx context.Context, question string, topK int) (*model.Answer, error)
}

type queryService struct {
	idx         *index.Index
	gen         llm.Generator
	defaultTopK int
}

// NewQueryService constructs a QueryService over the shared index and
// generation backend.
func NewQueryService(idx *index.Index, gen llm.Generator, defaultTopK int) QueryService {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &queryService{idx: idx, gen: gen, defaultTopK: defaultTopK}
}

func (s *queryService) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryRequired
	}
	if limit <= 0 {
		limit = s.defaultTopK
	}
	return s.idx.Search(query, limit), nil
}

func (s *queryService) Ask(ctx context.Context, question string, topK int) (*model.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrQueryRequired
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	sources := s.idx.Search(question, topK)
	contextChunks := make([]string, len(sources))
	for i, r := range sources {
		contextChunks[i] = r.Chunk.Content
	}

	answer, err := s.gen.Generate(ctx, question, contextChunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &model.Answer{
		Question: question,
		Answer:   answer,
		Sources:  sources,
	}, nil
}
