package gemini

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/inference"
	"google.golang.org/genai"
)

const providerName = "gemini"

//go:embed prompts/extract_answer.tmpl
var promptFS embed.FS

// contentGenerator is the subset of *genai.Models used by the client.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client answers questions with a Gemini model.
type Client struct {
	logger         *slog.Logger
	models         contentGenerator
	model          string
	promptTemplate *template.Template
}

// promptData is passed to the prompt template.
type promptData struct {
	Question string
	Context  string
}

// answerSchema is the JSON object the model is asked to return.
type answerSchema struct {
	Answer string `json:"answer"`
}

// NewClient creates a Client backed by the Gemini API.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: API key, model name and optional prompt template override
//
// Returns:
//   - A ready Client or an error if the configuration or template is invalid
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newClient(logger, client.Models, cfg)
}

func newClient(logger *slog.Logger, models contentGenerator, cfg config.GeminiConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return &Client{
		logger:         logger.With("component", "gemini_client"),
		models:         models,
		model:          cfg.ModelName,
		promptTemplate: tmpl,
	}, nil
}

// loadPromptTemplate parses the override at path, or the embedded default
// when path is empty, and checks that it renders.
func loadPromptTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = promptFS.ReadFile("prompts/extract_answer.tmpl")
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template: %v", ErrInvalidConfig, err)
	}

	tmpl, err := template.New("extract_answer").Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	if err := tmpl.Execute(io.Discard, promptData{Question: "question", Context: "context"}); err != nil {
		return nil, fmt.Errorf("%w: failed to render prompt template: %v", ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// Ask implements inference.QuestionAnswerer.
func (c *Client) Ask(ctx context.Context, question, passage string) (string, error) {
	if err := inference.ValidateInput(question, passage); err != nil {
		return "", err
	}

	var prompt bytes.Buffer
	if err := c.promptTemplate.Execute(&prompt, promptData{Question: question, Context: passage}); err != nil {
		c.logger.ErrorContext(ctx, "prompt template failed", "error", err)
		return "", inference.MalformedError(providerName,
			fmt.Errorf("%w: failed to execute prompt template: %v", ErrInvalidConfig, err))
	}

	c.logger.DebugContext(ctx, "calling Gemini API",
		"model", c.model,
		"prompt_length", prompt.Len())

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt.String()), generationConfig())
	if err != nil {
		c.logger.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", classifyError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", inference.MalformedError(providerName, err)
	}

	var parsed answerSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", inference.MalformedError(providerName, fmt.Errorf("failed to parse JSON response: %w", err))
	}

	return inference.NormalizeAnswer(parsed.Answer), nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"answer": {Type: genai.TypeString},
			},
			Required: []string{"answer"},
		},
	}
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("nil response")
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", errors.New("content blocked by safety filters")
	}
	if candidate.Content == nil {
		return "", errors.New("empty content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text in response")
	}
	return sb.String(), nil
}

// classifyError maps a GenerateContent error to an inference failure kind.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return inference.StatusError(providerName, apiErr.Code, errors.New(apiErr.Message))
	}
	return inference.TransportError(providerName, err)
}

var _ inference.QuestionAnswerer = (*Client)(nil)
