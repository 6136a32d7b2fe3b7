package sqlite

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

// PaymentStore implements store.PaymentStore on SQLite.
type PaymentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPaymentStore creates a PaymentStore. If logger is nil, slog.Default is used.
func NewPaymentStore(db store.DBTX, logger *slog.Logger) *PaymentStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentStore{
		db:     db,
		logger: logger.With(slog.String("component", "payment_store")),
	}
}

var _ store.PaymentStore = (*PaymentStore)(nil)

// Create implements store.PaymentStore.Create.
func (s *PaymentStore) Create(ctx context.Context, p *domain.Payment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (reference, user_id, email, amount, currency, status, authorization_url, created_at, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Reference, p.UserID, p.Email, p.Amount, p.Currency, string(p.Status), p.AuthorizationURL, p.CreatedAt, p.VerifiedAt)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", store.ErrPaymentExists, p.Reference)
		}
		log.Error("failed to create payment",
			slog.String("error", err.Error()),
			slog.String("reference", p.Reference))
		return mapped
	}

	logger.ForUser(ctx, s.logger, p.UserID).Info("payment created",
		slog.String("reference", p.Reference))
	return nil
}

// GetByReference implements store.PaymentStore.GetByReference.
func (s *PaymentStore) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var (
		p          domain.Payment
		status     string
		verifiedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT reference, user_id, email, amount, currency, status, authorization_url, created_at, verified_at
		FROM payments
		WHERE reference = ?
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
func (s *PaymentStore) UpdateStatus(
	ctx context.Context,
	reference string,
	status domain.PaymentStatus,
	verifiedAt time.Time,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidPaymentStatus)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE payments SET status = ?, verified_at = ? WHERE reference = ?
	`, string(status), verifiedAt.UTC(), reference)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrPaymentNotFound)
}

// WithTx implements store.PaymentStore.WithTx.
func (s *PaymentStore) WithTx(tx *sql.Tx) store.PaymentStore {
	return &PaymentStore{db: tx, logger: s.logger}
}

// EntitlementStore implements store.EntitlementStore on SQLite.
type EntitlementStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewEntitlementStore creates an EntitlementStore. If logger is nil, slog.Default is used.
func NewEntitlementStore(db store.DBTX, logger *slog.Logger) *EntitlementStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementStore{
		db:     db,
		logger: logger.With(slog.String("component", "entitlement_store")),
	}
}

var _ store.EntitlementStore = (*EntitlementStore)(nil)

// Grant implements store.EntitlementStore.Grant.
func (s *EntitlementStore) Grant(ctx context.Context, e *domain.Entitlement) error {
	if e.UserID == "" || e.Reference == "" {
		return fmt.Errorf("%w: entitlement requires user and reference", store.ErrInvalidEntity)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlements (user_id, reference, granted_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, e.UserID, e.Reference, e.GrantedAt.UTC())
	if err != nil {
		return MapError(err)
	}

	logger.ForUser(ctx, s.logger, e.UserID).Info("premium granted",
		slog.String("reference", e.Reference))
	return nil
}

// HasPremium implements store.EntitlementStore.HasPremium.
func (s *EntitlementStore) HasPremium(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM entitlements WHERE user_id = ?)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// WithTx implements store.EntitlementStore.WithTx.
func (s *EntitlementStore) WithTx(tx *sql.Tx) store.EntitlementStore {
	return &EntitlementStore{db: tx, logger: s.logger}
}
