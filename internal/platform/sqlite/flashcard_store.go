package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/store"
)

const insertFlashcardSQL = `
	INSERT INTO flashcards (id, user_id, question, answer, position, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// FlashcardStore implements store.FlashcardStore on SQLite.
type FlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewFlashcardStore creates a FlashcardStore. If logger is nil, slog.Default is used.
func NewFlashcardStore(db store.DBTX, logger *slog.Logger) *FlashcardStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

var _ store.FlashcardStore = (*FlashcardStore)(nil)

// Save implements store.FlashcardStore.Save.
func (s *FlashcardStore) Save(ctx context.Context, userID string, batch domain.FlashcardBatch) (int, error) {
	log := logger.ForUser(ctx, s.logger, userID)

	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrFlashcardUserIDEmpty)
	}

	createdAt := time.Now().UTC()
	for i, pair := range batch {
		card, err := domain.NewFlashcard(userID, pair, i+1)
		if err != nil {
			return i, &store.PartialSaveError{
				Saved: i,
				Total: batch.Len(),
				Err:   fmt.Errorf("%w: %v", store.ErrInvalidEntity, err),
			}
		}
		card.CreatedAt = createdAt

		_, err = s.db.ExecContext(ctx, insertFlashcardSQL,
			card.ID, card.UserID, card.Question, card.Answer, card.Position, card.CreatedAt)
		if err != nil {
			log.Error("failed to insert flashcard",
				slog.String("error", err.Error()),
				slog.Int("position", card.Position),
				slog.Int("saved", i))
			return i, &store.PartialSaveError{
				Saved: i,
				Total: batch.Len(),
				Err: store.NewStoreError("flashcard", "insert",
					fmt.Sprintf("write %d failed", card.Position), MapError(err)),
			}
		}
	}

	log.Info("flashcards saved",
		slog.Int("count", batch.Len()))
	return batch.Len(), nil
}

// ListByUser implements store.FlashcardStore.ListByUser.
func (s *FlashcardStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Flashcard, error) {
	log := logger.ForUser(ctx, s.logger, userID)

	if limit < 1 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, question, answer, position, created_at
		FROM flashcards
		WHERE user_id = ?
		ORDER BY created_at DESC, position ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		log.Error("failed to list flashcards",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Flashcard
	for rows.Next() {
		var card domain.Flashcard
		if err := rows.Scan(
			&card.ID, &card.UserID, &card.Question, &card.Answer, &card.Position, &card.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		cards = append(cards, &card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("flashcards listed",
		slog.Int("count", len(cards)))
	return cards, nil
}
