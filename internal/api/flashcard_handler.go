package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/generation"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
)

// FlashcardGenerator is the flashcard use case the handler depends on.
// *service.FlashcardService satisfies it.
type FlashcardGenerator interface {
	GenerateAndPersist(
		ctx context.Context,
		identity *domain.UserIdentity,
		notes string,
		count int,
	) (generation.Result, error)
	ListFlashcards(ctx context.Context, identity *domain.UserIdentity, limit int) ([]*domain.Flashcard, error)
}

// FlashcardHandler handles flashcard-related HTTP requests.
type FlashcardHandler struct {
	flashcards FlashcardGenerator
	logger     *slog.Logger
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcards FlashcardGenerator, logger *slog.Logger) *FlashcardHandler {
	if flashcards == nil {
		panic("flashcards cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlashcardHandler{
		flashcards: flashcards,
		logger:     logger.With(slog.String("component", "flashcard_handler")),
	}
}

// Generate handles POST /api/flashcards requests.
// It responds with the generated pairs in question order. Anonymous callers
// are rejected before the body is read.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity := shared.IdentityFromContext(r.Context())
	if identity.IsAnonymous() {
		HandleError(w, r, domain.AuthError("please log in", domain.ErrUnauthenticated))
		return
	}

	var req GenerateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.flashcards.GenerateAndPersist(r.Context(), identity, req.Notes, req.Count)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	log.Debug("flashcards returned", slog.Int("count", result.Batch.Len()))
	shared.RespondWithJSON(w, r, http.StatusOK, result.Batch)
}

// List handles GET /api/flashcards requests. An optional limit query
// parameter bounds the number of flashcards returned.
func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity.IsAnonymous() {
		HandleError(w, r, domain.AuthError("please log in", domain.ErrUnauthenticated))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	cards, err := h.flashcards.ListFlashcards(r.Context(), identity, limit)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, flashcardsToResponse(cards))
}
