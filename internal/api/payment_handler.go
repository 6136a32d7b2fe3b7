package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/platform/paystack"
)

// PaymentProcessor is the premium purchase use case the handler depends on.
// *service.PaymentService satisfies it.
type PaymentProcessor interface {
	Initialize(ctx context.Context, identity *domain.UserIdentity) (*domain.Payment, error)
	Confirm(ctx context.Context, identity *domain.UserIdentity, reference string) (*domain.Payment, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	HasPremium(ctx context.Context, identity *domain.UserIdentity) (bool, error)
}

// PaymentHandler handles premium purchase requests.
type PaymentHandler struct {
	payments PaymentProcessor
	logger   *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments PaymentProcessor, logger *slog.Logger) *PaymentHandler {
	if payments == nil {
		panic("payments cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		payments: payments,
		logger:   logger.With(slog.String("component", "payment_handler")),
	}
}

// Initialize handles POST /api/payments/initialize requests.
func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.Initialize(r.Context(), shared.IdentityFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PaymentInitResponse{
		AuthorizationURL: payment.AuthorizationURL,
		Reference:        payment.Reference,
	})
}

// Confirm handles /api/payments/confirm requests. It is also the checkout
// callback URL, so the reference arrives as a query parameter.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		// Paystack appends both names to the callback URL
		reference = r.URL.Query().Get("trxref")
	}

	payment, err := h.payments.Confirm(r.Context(), shared.IdentityFromContext(r.Context()), reference)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, paymentToResponse(payment))
}

// Webhook handles POST /api/payments/webhook requests from the gateway.
// The body is read whole because the signature covers the raw bytes.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, shared.MaxRequestBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), body, r.Header.Get(paystack.SignatureHeader)); err != nil {
		HandleError(w, r, err)
		return
	}

	log.Debug("webhook processed")
	w.WriteHeader(http.StatusOK)
}

// Premium handles GET /api/premium requests.
func (h *PaymentHandler) Premium(w http.ResponseWriter, r *http.Request) {
	premium, err := h.payments.HasPremium(r.Context(), shared.IdentityFromContext(r.Context()))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PremiumResponse{Premium: premium})
}
