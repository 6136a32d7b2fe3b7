package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flashcard-specific validation errors
var (
	// ErrFlashcardUserIDEmpty is returned when a flashcard has no owner.
	ErrFlashcardUserIDEmpty = errors.New("flashcard user ID cannot be empty")

	// ErrFlashcardQuestionEmpty is returned when a flashcard has no question.
	ErrFlashcardQuestionEmpty = errors.New("flashcard question cannot be empty")

	// ErrFlashcardPositionInvalid is returned when a flashcard position is not 1-based.
	ErrFlashcardPositionInvalid = errors.New("flashcard position must be at least 1")
)

// QuestionAnswerPair is a single generated question and its extracted answer.
// It is a value type and is never modified after creation.
type QuestionAnswerPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardBatch is the ordered result of one generation request.
// On success its length equals the requested question count.
type FlashcardBatch []QuestionAnswerPair

// Len returns the number of pairs in the batch.
func (b FlashcardBatch) Len() int {
	return len(b)
}

// Flashcard is a QuestionAnswerPair persisted for its owner.
// Position is the 1-based index of the pair within the batch it came from.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFlashcard creates a Flashcard owned by userID for the pair at position.
// Returns an error if validation fails.
func NewFlashcard(userID string, pair QuestionAnswerPair, position int) (*Flashcard, error) {
	card := &Flashcard{
		ID:        uuid.New(),
		UserID:    userID,
		Question:  pair.Question,
		Answer:    pair.Answer,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
func (f *Flashcard) Validate() error {
	if strings.TrimSpace(f.UserID) == "" {
		return ErrFlashcardUserIDEmpty
	}
	if strings.TrimSpace(f.Question) == "" {
		return ErrFlashcardQuestionEmpty
	}
	if f.Position < 1 {
		return ErrFlashcardPositionInvalid
	}
	return nil
}

// Pair returns the question and answer of the flashcard.
func (f *Flashcard) Pair() QuestionAnswerPair {
	return QuestionAnswerPair{Question: f.Question, Answer: f.Answer}
}
