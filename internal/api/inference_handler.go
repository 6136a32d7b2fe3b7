package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/inference"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
)

// Fixed inputs for the inference diagnostic.
const (
	checkQuestion = "What is the capital of France?"
	checkContext  = "Paris is the capital and most populous city of France."
)

// InferenceHandler exposes a diagnostic that makes one question-answering
// call against the configured provider.
type InferenceHandler struct {
	qa       inference.QuestionAnswerer
	provider string
	logger   *slog.Logger
}

// NewInferenceHandler creates a new InferenceHandler.
func NewInferenceHandler(qa inference.QuestionAnswerer, provider string, logger *slog.Logger) *InferenceHandler {
	if qa == nil {
		panic("qa cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InferenceHandler{
		qa:       qa,
		provider: provider,
		logger:   logger.With(slog.String("component", "inference_handler")),
	}
}

// Check handles GET /api/inference/check requests.
func (h *InferenceHandler) Check(w http.ResponseWriter, r *http.Request) {
	answer, err := h.qa.Ask(r.Context(), checkQuestion, checkContext)
	if err != nil {
		HandleError(w, r, domain.InferenceError("inference check failed", err))
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("inference check succeeded",
		slog.String("provider", h.provider),
		slog.String("answer", answer))
	shared.RespondWithJSON(w, r, http.StatusOK, InferenceCheckResponse{
		Question: checkQuestion,
		Context:  checkContext,
		Answer:   answer,
		Provider: h.provider,
	})
}
