package store

import (
	"context"

	"github.com/phrazzld/cardsmith/internal/domain"
)

// FlashcardStore defines the interface for flashcard persistence.
type FlashcardStore interface {
	// Save persists every pair in batch for userID, one write per pair, in
	// batch order. Writes are independent; there is no enclosing transaction.
	//
	// On full success it returns batch.Len(). If write k fails, pairs 1..k-1
	// stay persisted, pairs k+1..N are not attempted, and the returned count
	// is k-1 together with a *PartialSaveError.
	//
	// An empty userID returns ErrInvalidEntity before any write.
	Save(ctx context.Context, userID string, batch domain.FlashcardBatch) (int, error)

	// ListByUser returns up to limit flashcards owned by userID, newest batch
	// first and in position order within a batch. A limit below one means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Flashcard, error)
}
