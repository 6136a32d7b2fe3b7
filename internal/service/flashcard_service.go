package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/generation"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/store"
)

// Generator runs the generation pipeline and persists its result.
// *generation.Orchestrator satisfies it.
type Generator interface {
	Run(ctx context.Context, req generation.Request, saver generation.Saver) (generation.Result, error)
}

// FlashcardService is the authenticated entry point to flashcard generation.
type FlashcardService struct {
	generator    Generator
	flashcards   store.FlashcardStore
	entitlements store.EntitlementStore
	defaultCount int
	premiumMax   int
	logger       *slog.Logger
}

// NewFlashcardService creates a FlashcardService. entitlements may be nil,
// in which case no caller is treated as premium.
func NewFlashcardService(
	generator Generator,
	flashcards store.FlashcardStore,
	entitlements store.EntitlementStore,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) (*FlashcardService, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if flashcards == nil {
		return nil, errors.New("flashcard store cannot be nil")
	}
	if cfg.QuestionCount < 1 {
		return nil, fmt.Errorf("question count must be at least 1, got %d", cfg.QuestionCount)
	}
	if logger == nil {
		logger = slog.Default()
	}

	premiumMax := cfg.PremiumMaxQuestions
	if premiumMax < cfg.QuestionCount {
		premiumMax = cfg.QuestionCount
	}

	return &FlashcardService{
		generator:    generator,
		flashcards:   flashcards,
		entitlements: entitlements,
		defaultCount: cfg.QuestionCount,
		premiumMax:   premiumMax,
		logger:       logger.With(slog.String("component", "flashcard_service")),
	}, nil
}

// GenerateAndPersist generates a batch from notes for the caller and saves
// it. A count of zero selects the configured default; counts above the
// default require premium access.
//
// An anonymous caller is rejected with an auth error before any question is
// asked or anything is written.
func (s *FlashcardService) GenerateAndPersist(
	ctx context.Context,
	identity *domain.UserIdentity,
	notes string,
	count int,
) (generation.Result, error) {
	if identity.IsAnonymous() {
		return generation.Result{}, domain.AuthError("please log in", domain.ErrUnauthenticated)
	}

	log := logger.ForUser(ctx, s.logger, identity.ID)

	count, err := s.resolveCount(ctx, identity.ID, count)
	if err != nil {
		return generation.Result{}, err
	}

	result, err := s.generator.Run(ctx, generation.Request{
		UserID: identity.ID,
		Notes:  notes,
		Count:  count,
	}, s.flashcards)
	if err != nil {
		log.WarnContext(ctx, "flashcard generation failed",
			slog.String("kind", string(domain.KindOf(err))),
			slog.Int("saved", result.Saved))
		return result, err
	}

	log.InfoContext(ctx, "flashcards generated", slog.Int("count", result.Batch.Len()))
	return result, nil
}

// ListFlashcards returns the caller's saved flashcards, newest batch first.
func (s *FlashcardService) ListFlashcards(
	ctx context.Context,
	identity *domain.UserIdentity,
	limit int,
) ([]*domain.Flashcard, error) {
	if identity.IsAnonymous() {
		return nil, domain.AuthError("please log in", domain.ErrUnauthenticated)
	}

	cards, err := s.flashcards.ListByUser(ctx, identity.ID, limit)
	if err != nil {
		return nil, domain.PersistenceError("could not load flashcards", err)
	}
	return cards, nil
}

// resolveCount applies the default and the free-tier limit to count.
func (s *FlashcardService) resolveCount(ctx context.Context, userID string, count int) (int, error) {
	switch {
	case count == 0:
		return s.defaultCount, nil
	case count < 0:
		return 0, domain.ValidationError("question count must be at least 1", domain.ErrInvalidQuestionCount)
	case count <= s.defaultCount:
		return count, nil
	case count > s.premiumMax:
		return 0, domain.ValidationError(
			fmt.Sprintf("question count cannot exceed %d", s.premiumMax), domain.ErrInvalidQuestionCount)
	}

	premium, err := s.hasPremium(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !premium {
		return 0, domain.NewError(domain.KindForbidden,
			fmt.Sprintf("more than %d questions requires premium", s.defaultCount), ErrPremiumRequired)
	}
	return count, nil
}

func (s *FlashcardService) hasPremium(ctx context.Context, userID string) (bool, error) {
	if s.entitlements == nil {
		return false, nil
	}
	premium, err := s.entitlements.HasPremium(ctx, userID)
	if err != nil {
		return false, domain.PersistenceError("could not check premium access", err)
	}
	return premium, nil
}
