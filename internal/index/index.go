// Package index implements the in-memory TF-IDF vector index backing
// similarity search over document chunks. The index is rebuilt from the
// chunks table at startup and kept in sync by the document service.
package index

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"ragapi/internal/model"
)

// stopWords are excluded from both document and query tokens.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

type entry struct {
	chunk    model.Chunk
	termFreq map[string]float64 // term -> frequency normalized by token count
}

// Index is a thread-safe in-memory TF-IDF index over chunks.
// TF-IDF weights are computed at query time against the live vocabulary,
// so scores always reflect the current corpus.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry   // chunk ID -> entry
	docFreq map[string]int      // term -> number of chunks containing it
	byDoc   map[string][]string // document ID -> chunk IDs
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make(map[string]*entry),
		docFreq: make(map[string]int),
		byDoc:   make(map[string][]string),
	}
}

// Tokenize normalizes text (NFC, lowercase), strips punctuation and drops
// stop words. Documents and queries must go through the same tokenizer for
// scores to be meaningful.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)

	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, tok := range fields {
		if _, skip := stopWords[tok]; !skip {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	n := float64(len(tokens))
	for tok := range tf {
		tf[tok] /= n
	}
	return tf
}

// Add indexes a chunk. Re-adding an existing chunk ID replaces it.
func (ix *Index) Add(chunk model.Chunk) {
	tokens := Tokenize(chunk.Content)
	if len(tokens) == 0 {
		return
	}
	tf := termFrequencies(tokens)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	old, replacing := ix.entries[chunk.ID]
	if replacing {
		ix.removeLocked(old)
	}

	e := &entry{chunk: chunk, termFreq: tf}
	ix.entries[chunk.ID] = e
	if !replacing {
		ix.byDoc[chunk.DocumentID] = append(ix.byDoc[chunk.DocumentID], chunk.ID)
	}
	for term := range tf {
		ix.docFreq[term]++
	}
}

// RemoveDocument drops every chunk belonging to the given document.
func (ix *Index) RemoveDocument(documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, chunkID := range ix.byDoc[documentID] {
		if e, ok := ix.entries[chunkID]; ok {
			ix.removeLocked(e)
		}
	}
	delete(ix.byDoc, documentID)
}

// removeLocked drops an entry's terms from the document frequencies and the
// entry itself. Caller must hold the write lock.
func (ix *Index) removeLocked(e *entry) {
	for term := range e.termFreq {
		if ix.docFreq[term] <= 1 {
			delete(ix.docFreq, term)
		} else {
			ix.docFreq[term]--
		}
	}
	delete(ix.entries, e.chunk.ID)
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// idfLocked computes ln(1 + N/(1+df)) for a term. Caller must hold a lock.
func (ix *Index) idfLocked(term string) float64 {
	n := float64(len(ix.entries))
	df := float64(ix.docFreq[term])
	return math.Log(1 + n/(1+df))
}

// Search returns the topK chunks most similar to the query by cosine
// similarity of TF-IDF vectors, ordered by descending score.
func (ix *Index) Search(query string, topK int) []model.SearchResult {
	if topK <= 0 {
		return nil
	}
	queryTF := termFrequencies(Tokenize(query))
	if len(queryTF) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	queryWeights := make(map[string]float64, len(queryTF))
	var queryNorm float64
	for term, tf := range queryTF {
		w := tf * ix.idfLocked(term)
		queryWeights[term] = w
		queryNorm += w * w
	}
	queryNorm = math.Sqrt(queryNorm)

	results := make([]model.SearchResult, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, model.SearchResult{
			Chunk: e.chunk,
			Score: ix.cosineLocked(e, queryWeights, queryNorm),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (ix *Index) cosineLocked(e *entry, queryWeights map[string]float64, queryNorm float64) float64 {
	var dot, docNorm float64
	for term, tf := range e.termFreq {
		w := tf * ix.idfLocked(term)
		docNorm += w * w
		if qw, ok := queryWeights[term]; ok {
			dot += w * qw
		}
	}
	docNorm = math.Sqrt(docNorm)

	if docNorm == 0 || queryNorm == 0 {
		return 0
	}
	return dot / (docNorm * queryNorm)
}
