// Package textsplit splits raw document text into chunks suitable for
// retrieval indexing. Splitting happens at sentence boundaries so that a
// chunk never cuts a sentence in half.
package textsplit

import "strings"

// DefaultChunkSize is the chunk budget used when a non-positive size is given.
const DefaultChunkSize = 1000

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Split packs the sentences of text into chunks of at most maxChars
// characters. Sentences are delimited by '.', '!' or '?'. A single sentence
// longer than maxChars becomes a chunk of its own. Empty input yields no
// chunks.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range strings.FieldsFunc(text, isTerminator) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceLen := len([]rune(sentence))
		if currentLen+sentenceLen+2 > maxChars && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		current.WriteByte('.')
		currentLen += sentenceLen + 1
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}
