// Package llm contains the generation backend used to turn a question and
// retrieved context chunks into a grounded answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuestion is returned when generation is requested for a blank question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Generator produces an answer for a question, optionally grounded in
// retrieved context chunks.
type Generator interface {
	Generate(ctx context.Context, question string, contextChunks []string) (string, error)
}

// BuildPrompt assembles the Mistral-instruct prompt. Retrieved chunks are
// joined by blank lines ahead of the question; with no chunks the prompt is
// the bare question.
func BuildPrompt(question string, contextChunks []string) string {
	var contextStr string
	if len(contextChunks) > 0 {
		contextStr = fmt.Sprintf(
			"Using the following context to answer the question:\n\n%s\n\n",
			strings.Join(contextChunks, "\n\n"),
		)
	}
	return fmt.Sprintf("<s>[INST] %sQuestion: %s [/INST]", contextStr, question)
}
