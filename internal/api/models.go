package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/cardsmith/internal/domain"
)

// Common request/response structures

// GenerateRequest defines the payload for the flashcard generation endpoint.
// Count is optional; zero selects the configured default.
type GenerateRequest struct {
	Notes string `json:"notes"`
	Count int    `json:"count" validate:"gte=0"`
}

// FlashcardResponse is a persisted flashcard as returned by the list endpoint.
type FlashcardResponse struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse defines the successful response for the login and
// registration endpoints.
type AuthResponse struct {
	// UserID is the identifier assigned by the identity provider
	UserID string `json:"user_id"`

	// Email is the address the user logged in with
	Email string `json:"email"`

	// AccessToken is the JWT token used for API authorization.
	// The same token is also set as the session cookie.
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// IdentityResponse is the current caller.
type IdentityResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// PaymentInitResponse is returned when a checkout has been started.
type PaymentInitResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// PaymentResponse reports the state of a payment after confirmation.
type PaymentResponse struct {
	Reference string               `json:"reference"`
	Status    domain.PaymentStatus `json:"status"`
	Amount    int64                `json:"amount"`
	Currency  string               `json:"currency,omitempty"`
	Premium   bool                 `json:"premium"`
}

// PremiumResponse reports whether the caller holds premium access.
type PremiumResponse struct {
	Premium bool `json:"premium"`
}

// InferenceCheckResponse reports the result of the inference diagnostic.
type InferenceCheckResponse struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
}

func flashcardsToResponse(cards []*domain.Flashcard) []FlashcardResponse {
	out := make([]FlashcardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, FlashcardResponse{
			ID:        c.ID,
			Question:  c.Question,
			Answer:    c.Answer,
			Position:  c.Position,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

func paymentToResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		Reference: p.Reference,
		Status:    p.Status,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Premium:   p.Status == domain.PaymentStatusSuccess,
	}
}
