package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/cardsmith/internal/domain"
)

// PaymentStore defines the interface for payment persistence.
type PaymentStore interface {
	// Create inserts a new payment.
	// Returns ErrPaymentExists if the reference is already used.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByReference returns the payment with the given reference.
	// Returns ErrPaymentNotFound if it does not exist.
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)

	// UpdateStatus records the verified status of a payment.
	// Returns ErrPaymentNotFound if it does not exist.
	UpdateStatus(ctx context.Context, reference string, status domain.PaymentStatus, verifiedAt time.Time) error

	// WithTx returns a PaymentStore that runs its queries in tx.
	WithTx(tx *sql.Tx) PaymentStore
}

// EntitlementStore defines the interface for premium access records.
type EntitlementStore interface {
	// Grant records premium access. Granting twice for the same user is not
	// an error; the first grant is kept.
	Grant(ctx context.Context, entitlement *domain.Entitlement) error

	// HasPremium reports whether userID holds an entitlement.
	HasPremium(ctx context.Context, userID string) (bool, error)

	// WithTx returns an EntitlementStore that runs its queries in tx.
	WithTx(tx *sql.Tx) EntitlementStore
}
