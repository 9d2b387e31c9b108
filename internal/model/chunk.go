package model

import "time"

// Chunk is a retrievable piece of a document. Chunks are produced by
// sentence-boundary splitting at ingest time and indexed for similarity search.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult is a chunk matched against a query, with its cosine
// similarity score in [0, 1].
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Answer is a generated response grounded in the retrieved source chunks.
type Answer struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Sources  []SearchResult `json:"sources"`
}
