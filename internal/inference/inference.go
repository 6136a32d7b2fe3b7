// Package inference defines the question-answering contract used by the
// flashcard generator. Provider adapters live under internal/platform.
package inference

import (
	"context"
	"strings"
)

// NoAnswer is returned by a QuestionAnswerer when the provider found no
// extractable answer in the context. It is a value, not an error.
const NoAnswer = "No answer found"

// QuestionAnswerer extracts an answer to question from the context passage.
// Each call makes at most one outbound request; implementations never retry
// or cache.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question, passage string) (string, error)
}

// QuestionAnswererFunc adapts a plain function to QuestionAnswerer.
type QuestionAnswererFunc func(ctx context.Context, question, passage string) (string, error)

// Ask calls f.
func (f QuestionAnswererFunc) Ask(ctx context.Context, question, passage string) (string, error) {
	return f(ctx, question, passage)
}

// ValidateInput checks the arguments every adapter requires before making a call.
func ValidateInput(question, passage string) error {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(passage) == "" {
		return ErrEmptyInput
	}
	return nil
}

// NormalizeAnswer trims a provider answer and substitutes NoAnswer when
// nothing remains.
func NormalizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NoAnswer
	}
	return answer
}
