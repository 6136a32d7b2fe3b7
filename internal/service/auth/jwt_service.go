package auth

import (
	"context"
	"time"

	"github.com/phrazzld/cardsmith/internal/domain"
)

// JWTService issues and validates session tokens.
type JWTService interface {
	// GenerateToken creates a signed session token for the identity.
	GenerateToken(ctx context.Context, identity *domain.UserIdentity) (string, error)

	// ValidateToken validates the token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// TokenLifetime is how long issued tokens stay valid.
	TokenLifetime() time.Duration
}

// IdentityProvider checks a user's credentials with the external identity
// authority and creates accounts there.
type IdentityProvider interface {
	// Authenticate returns the identity for valid credentials, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.UserIdentity, error)

	// Register creates an account and returns its identity. It fails with
	// ErrAccountExists, ErrRegistrationRejected or ErrRegistrationUnavailable.
	Register(ctx context.Context, email, password string) (*domain.UserIdentity, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	// UserID is the opaque identifier of the user the token was issued for.
	UserID string `json:"uid,omitempty"`
	Email  string `json:"email,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// Identity returns the caller identified by the claims.
func (c *Claims) Identity() *domain.UserIdentity {
	return &domain.UserIdentity{ID: c.UserID, Email: c.Email}
}
