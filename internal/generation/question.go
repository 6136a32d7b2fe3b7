package generation

import (
	"bytes"
	"fmt"
	"text/template"
)

// QuestionTemplate renders the synthetic question for a card index.
type QuestionTemplate struct {
	tmpl *template.Template
}

type questionData struct {
	Index int
}

// NewQuestionTemplate parses text as a text/template. The template receives
// a value with a single field, Index, starting at 1. Templates that render
// the same text for different indexes are rejected.
func NewQuestionTemplate(text string) (*QuestionTemplate, error) {
	tmpl, err := template.New("question").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse question template: %v", ErrInvalidConfig, err)
	}

	q := &QuestionTemplate{tmpl: tmpl}
	first, err := q.Render(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	second, err := q.Render(2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if first == "" || first == second {
		return nil, fmt.Errorf("%w: question template must include {{.Index}}", ErrInvalidConfig)
	}
	return q, nil
}

// Render returns the question for the 1-based index.
func (q *QuestionTemplate) Render(index int) (string, error) {
	var buf bytes.Buffer
	if err := q.tmpl.Execute(&buf, questionData{Index: index}); err != nil {
		return "", fmt.Errorf("render question %d: %w", index, err)
	}
	return buf.String(), nil
}

// RenderAll returns questions 1..count in order.
func (q *QuestionTemplate) RenderAll(count int) ([]string, error) {
	questions := make([]string, count)
	for i := range questions {
		text, err := q.Render(i + 1)
		if err != nil {
			return nil, err
		}
		questions[i] = text
	}
	return questions, nil
}
