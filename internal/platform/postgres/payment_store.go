package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/store"
)

// PostgresPaymentStore implements the store.PaymentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPaymentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPaymentStore creates a new PostgreSQL implementation of the PaymentStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPaymentStore(db store.DBTX, logger *slog.Logger) *PostgresPaymentStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPaymentStore{
		db:     db,
		logger: logger.With(slog.String("component", "payment_store")),
	}
}

var _ store.PaymentStore = (*PostgresPaymentStore)(nil)

// Create implements store.PaymentStore.Create.
func (s *PostgresPaymentStore) Create(ctx context.Context, p *domain.Payment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (reference, user_id, email, amount, currency, status, authorization_url, created_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.Reference, p.UserID, p.Email, p.Amount, p.Currency, string(p.Status), p.AuthorizationURL, p.CreatedAt, p.VerifiedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrPaymentExists, p.Reference)
		}
		log.Error("failed to create payment",
			slog.String("error", err.Error()),
			slog.String("reference", p.Reference))
		return MapError(err)
	}

	logger.ForUser(ctx, s.logger, p.UserID).Info("payment created",
		slog.String("reference", p.Reference))
	return nil
}

// GetByReference implements store.PaymentStore.GetByReference.
func (s *PostgresPaymentStore) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var (
		p          domain.Payment
		status     string
		verifiedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT reference, user_id, email, amount, currency, status, authorization_url, created_at, verified_at
		FROM payments
		WHERE reference = $1
	`, reference).Scan(
		&p.Reference, &p.UserID, &p.Email, &p.Amount, &p.Currency,
		&status, &p.AuthorizationURL, &p.CreatedAt, &verifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPaymentNotFound
		}
		return nil, MapError(err)
	}

	p.Status = domain.PaymentStatus(status)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		p.VerifiedAt = &t
	}
	return &p, nil
}

// UpdateStatus implements store.PaymentStore.UpdateStatus.
func (s *PostgresPaymentStore) UpdateStatus(
	ctx context.Context,
	reference string,
	status domain.PaymentStatus,
	verifiedAt time.Time,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidPaymentStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, verified_at = $2 WHERE reference = $3
	`, string(status), verifiedAt.UTC(), reference)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrPaymentNotFound)
}

// WithTx implements store.PaymentStore.WithTx.
func (s *PostgresPaymentStore) WithTx(tx *sql.Tx) store.PaymentStore {
	return &PostgresPaymentStore{db: tx, logger: s.logger}
}

// PostgresEntitlementStore implements the store.EntitlementStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEntitlementStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEntitlementStore creates a new PostgreSQL implementation of the EntitlementStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresEntitlementStore(db store.DBTX, logger *slog.Logger) *PostgresEntitlementStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEntitlementStore{
		db:     db,
		logger: logger.With(slog.String("component", "entitlement_store")),
	}
}

var _ store.EntitlementStore = (*PostgresEntitlementStore)(nil)

// Grant implements store.EntitlementStore.Grant. Granting twice is a no-op.
func (s *PostgresEntitlementStore) Grant(ctx context.Context, e *domain.Entitlement) error {
	if e.UserID == "" || e.Reference == "" {
		return fmt.Errorf("%w: entitlement requires user and reference", store.ErrInvalidEntity)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlements (user_id, reference, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, e.UserID, e.Reference, e.GrantedAt.UTC())
	if err != nil {
		if IsForeignKeyViolation(err) {
			logger.ForUser(ctx, s.logger, e.UserID).Error("entitlement references unknown payment",
				slog.String("reference", e.Reference))
			return fmt.Errorf("%w: no payment with reference %q", store.ErrInvalidEntity, e.Reference)
		}
		return MapError(err)
	}

	logger.ForUser(ctx, s.logger, e.UserID).Info("premium granted",
		slog.String("reference", e.Reference))
	return nil
}

// HasPremium implements store.EntitlementStore.HasPremium.
func (s *PostgresEntitlementStore) HasPremium(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entitlements WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// WithTx implements store.EntitlementStore.WithTx.
func (s *PostgresEntitlementStore) WithTx(tx *sql.Tx) store.EntitlementStore {
	return &PostgresEntitlementStore{db: tx, logger: s.logger}
}
