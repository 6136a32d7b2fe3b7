package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/platform/paystack"
	"github.com/phrazzld/cardsmith/internal/store"
	"github.com/rs/xid"
)

// ChargeSuccessEvent is the webhook event that settles a payment.
const ChargeSuccessEvent = "charge.success"

// referencePrefix marks payment references issued by this service.
const referencePrefix = "cs_"

// PaymentGateway is the hosted checkout provider. *paystack.Client satisfies it.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Initialization, error)
	Verify(ctx context.Context, reference string) (*paystack.Verification, error)
	ParseEvent(body []byte, signature string) (*paystack.Event, error)
}

// PaymentService sells premium access. A payment only grants premium once
// the gateway has confirmed it settled, either through the verify endpoint
// or a signed webhook.
type PaymentService struct {
	db           *sql.DB
	gateway      PaymentGateway
	payments     store.PaymentStore
	entitlements store.EntitlementStore
	amount       int64
	currency     string
	callbackURL  string
	logger       *slog.Logger
	timeFunc     func() time.Time
}

// NewPaymentService creates a PaymentService. gateway may be nil, in which
// case every payment operation except HasPremium fails with ErrPaymentsDisabled.
func NewPaymentService(
	db *sql.DB,
	gateway PaymentGateway,
	payments store.PaymentStore,
	entitlements store.EntitlementStore,
	cfg config.PaymentConfig,
	logger *slog.Logger,
) (*PaymentService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if payments == nil || entitlements == nil {
		return nil, errors.New("payment and entitlement stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		db:           db,
		gateway:      gateway,
		payments:     payments,
		entitlements: entitlements,
		amount:       cfg.Amount,
		currency:     cfg.Currency,
		callbackURL:  cfg.CallbackURL,
		logger:       logger.With(slog.String("component", "payment_service")),
		timeFunc:     time.Now,
	}, nil
}

// Initialize starts a premium purchase for the caller and records it as
// pending.
func (s *PaymentService) Initialize(ctx context.Context, identity *domain.UserIdentity) (*domain.Payment, error) {
	if identity.IsAnonymous() {
		return nil, domain.AuthError("please log in", domain.ErrUnauthenticated)
	}
	if s.gateway == nil {
		return nil, domain.PaymentError("payments are not available", ErrPaymentsDisabled)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	reference := referencePrefix + xid.New().String()

	payment, err := domain.NewPayment(reference, identity.ID, identity.Email, s.amount, s.currency)
	if err != nil {
		return nil, domain.ValidationError("invalid payment", err)
	}

	checkout, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       identity.Email,
		Amount:      s.amount,
		Currency:    s.currency,
		CallbackURL: s.callbackURL,
		Reference:   reference,
	})
	if err != nil {
		return nil, domain.PaymentError("could not start payment", err)
	}
	payment.AuthorizationURL = checkout.AuthorizationURL

	if err := s.payments.Create(ctx, payment); err != nil {
		log.ErrorContext(ctx, "failed to record initialized payment",
			slog.String("reference", reference),
			slog.String("error", err.Error()))
		return nil, domain.PersistenceError("could not record payment", err)
	}

	logger.ForUser(ctx, s.logger, identity.ID).InfoContext(ctx, "payment initialized",
		slog.String("reference", reference))
	return payment, nil
}

// Confirm verifies the caller's payment with the gateway and grants premium
// when it settled. Confirming a payment that already succeeded is a no-op.
func (s *PaymentService) Confirm(
	ctx context.Context,
	identity *domain.UserIdentity,
	reference string,
) (*domain.Payment, error) {
	if identity.IsAnonymous() {
		return nil, domain.AuthError("please log in", domain.ErrUnauthenticated)
	}
	if s.gateway == nil {
		return nil, domain.PaymentError("payments are not available", ErrPaymentsDisabled)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ValidationError("payment reference is required", domain.ErrPaymentReferenceEmpty)
	}

	payment, err := s.lookup(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.UserID != identity.ID {
		return nil, domain.NewError(domain.KindForbidden, "payment belongs to another user", ErrNotOwned)
	}
	if payment.Status == domain.PaymentStatusSuccess {
		return payment, nil
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			return nil, domain.NewError(domain.KindNotFound, "payment not found", err)
		}
		return nil, domain.PaymentError("could not verify payment", err)
	}

	if !verification.Succeeded() {
		if verification.Status == paystack.StatusFailed {
			if err := s.payments.UpdateStatus(ctx, reference, domain.PaymentStatusFailed, s.timeFunc()); err != nil {
				return nil, domain.PersistenceError("could not record payment status", err)
			}
		}
		return nil, domain.PaymentError(
			fmt.Sprintf("payment status is %q", verification.Status), ErrPaymentNotSettled)
	}

	return s.settle(ctx, payment, verification)
}

// HandleWebhook processes a signed gateway event. Events other than
// charge.success are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.gateway == nil {
		return domain.PaymentError("payments are not available", ErrPaymentsDisabled)
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.gateway.ParseEvent(body, signature)
	if err != nil {
		if errors.Is(err, paystack.ErrInvalidSignature) {
			log.WarnContext(ctx, "rejected webhook with invalid signature")
			return domain.AuthError("invalid webhook signature", errors.Join(ErrInvalidWebhook, err))
		}
		return domain.ValidationError("invalid webhook payload", errors.Join(ErrInvalidWebhook, err))
	}

	if event.Event != ChargeSuccessEvent || !event.Data.Succeeded() {
		log.DebugContext(ctx, "ignoring webhook event", slog.String("event", event.Event))
		return nil
	}

	payment, err := s.lookup(ctx, event.Data.Reference)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentStatusSuccess {
		return nil
	}

	_, err = s.settle(ctx, payment, &event.Data)
	return err
}

// HasPremium reports whether the caller holds premium access.
func (s *PaymentService) HasPremium(ctx context.Context, identity *domain.UserIdentity) (bool, error) {
	if identity.IsAnonymous() {
		return false, domain.AuthError("please log in", domain.ErrUnauthenticated)
	}
	premium, err := s.entitlements.HasPremium(ctx, identity.ID)
	if err != nil {
		return false, domain.PersistenceError("could not check premium access", err)
	}
	return premium, nil
}

func (s *PaymentService) lookup(ctx context.Context, reference string) (*domain.Payment, error) {
	payment, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.NewError(domain.KindNotFound, "payment not found", err)
		}
		return nil, domain.PersistenceError("could not load payment", err)
	}
	return payment, nil
}

// settle records the payment as successful and grants premium in one
// transaction, after checking the settled amount.
func (s *PaymentService) settle(
	ctx context.Context,
	payment *domain.Payment,
	verification *paystack.Verification,
) (*domain.Payment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if verification.Amount != payment.Amount ||
		(verification.Currency != "" && payment.Currency != "" &&
			!strings.EqualFold(verification.Currency, payment.Currency)) {
		log.ErrorContext(ctx, "settled payment does not match the charge",
			slog.String("reference", payment.Reference),
			slog.Int64("expected_amount", payment.Amount),
			slog.Int64("settled_amount", verification.Amount))
		return nil, domain.PaymentError("payment amount mismatch", ErrPaymentMismatch)
	}

	now := s.timeFunc().UTC()
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.payments.WithTx(tx).UpdateStatus(ctx, payment.Reference, domain.PaymentStatusSuccess, now); err != nil {
			return err
		}
		return s.entitlements.WithTx(tx).Grant(ctx, &domain.Entitlement{
			UserID:    payment.UserID,
			Reference: payment.Reference,
			GrantedAt: now,
		})
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to grant premium",
			slog.String("reference", payment.Reference),
			slog.String("error", err.Error()))
		return nil, domain.PersistenceError("could not grant premium access", err)
	}

	payment.Status = domain.PaymentStatusSuccess
	payment.VerifiedAt = &now
	logger.ForUser(ctx, s.logger, payment.UserID).InfoContext(ctx, "premium granted",
		slog.String("reference", payment.Reference))
	return payment, nil
}
