package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/store"
)

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// Save implements store.FlashcardStore.Save.
// Pairs are written one row at a time in batch order and writing stops at
// the first failure, so the rows already written stay readable.
func (s *PostgresFlashcardStore) Save(ctx context.Context, userID string, batch domain.FlashcardBatch) (int, error) {
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

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO flashcards (id, user_id, question, answer, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, card.ID, card.UserID, card.Question, card.Answer, card.Position, card.CreatedAt)
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
// A limit below 1 returns every flashcard.
func (s *PostgresFlashcardStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Flashcard, error) {
	log := logger.ForUser(ctx, s.logger, userID)

	// LIMIT NULL is LIMIT ALL
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, question, answer, position, created_at
		FROM flashcards
		WHERE user_id = $1
		ORDER BY created_at DESC, position ASC
		LIMIT $2
	`, userID, lim)
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
	return cards, nil
}
