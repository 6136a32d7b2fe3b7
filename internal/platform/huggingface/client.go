// Package huggingface implements inference.QuestionAnswerer against the
// Hugging Face hosted inference API for extractive question-answering models.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/inference"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const providerName = "huggingface"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// Client asks questions of a hosted QA model. It is safe for concurrent use.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	modelURL   string
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithBaseTransport sets the transport underneath the bearer token transport.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport.(*oauth2.Transport).Base = rt
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// NewClient creates a Client. The API token is attached to every request as
// a bearer token and each request is bounded by timeout.
func NewClient(
	logger *slog.Logger,
	cfg config.HuggingFaceConfig,
	timeout time.Duration,
	opts ...Option,
) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIToken == "" {
		return nil, errors.New("hugging face API token cannot be empty")
	}
	if cfg.ModelURL == "" {
		return nil, errors.New("hugging face model URL cannot be empty")
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken})
	c := &Client{
		logger: logger.With("component", "huggingface_client"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src},
		},
		modelURL: cfg.ModelURL,
		tracer:   otel.Tracer("github.com/phrazzld/cardsmith/internal/platform/huggingface"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type requestBody struct {
	Inputs requestInputs `json:"inputs"`
}

type requestInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// answerResponse is the body returned by question-answering pipelines.
type answerResponse struct {
	Answer *string `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Ask implements inference.QuestionAnswerer.
func (c *Client) Ask(ctx context.Context, question, passage string) (string, error) {
	if err := inference.ValidateInput(question, passage); err != nil {
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, "huggingface.Ask", trace.WithAttributes(
		attribute.Int("inference.question_length", len(question)),
		attribute.Int("inference.context_length", len(passage)),
	))
	defer span.End()

	answer, err := c.ask(ctx, span, question, passage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question answering failed")
		c.logger.ErrorContext(ctx, "question answering failed", "error", err)
		return "", err
	}
	return answer, nil
}

func (c *Client) ask(ctx context.Context, span trace.Span, question, passage string) (string, error) {
	payload, err := json.Marshal(requestBody{Inputs: requestInputs{Question: question, Context: passage}})
	if err != nil {
		return "", inference.MalformedError(providerName, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return "", inference.TransportError(providerName, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", inference.TransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "inference response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", inference.StatusError(providerName, resp.StatusCode, readErrorDetail(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", inference.TransportError(providerName, fmt.Errorf("read response: %w", err))
	}

	var parsed answerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", inference.MalformedError(providerName, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Answer == nil {
		return inference.NoAnswer, nil
	}

	span.SetAttributes(attribute.Float64("inference.score", parsed.Score))
	return inference.NormalizeAnswer(*parsed.Answer), nil
}

// readErrorDetail extracts the provider's error message, if any.
func readErrorDetail(r io.Reader) error {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(body) == 0 {
		return nil
	}
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		return errors.New(parsed.Error)
	}
	return errors.New(string(bytes.TrimSpace(body)))
}

var _ inference.QuestionAnswerer = (*Client)(nil)
