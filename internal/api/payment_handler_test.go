package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/platform/paystack"
	"github.com/phrazzld/cardsmith/internal/service"
	"github.com/phrazzld/cardsmith/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentHandler_Initialize(t *testing.T) {
	h := NewPaymentHandler(&fakePayments{
		InitializeFn: func(_ context.Context, identity *domain.UserIdentity) (*domain.Payment, error) {
			if identity.IsAnonymous() {
				return nil, domain.AuthError("please log in", domain.ErrUnauthenticated)
			}
			return &domain.Payment{
				Reference:        "cs_abc",
				AuthorizationURL: "https://checkout.paystack.com/abc",
			}, nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Initialize(w, newRequest(http.MethodPost, "/api/payments/initialize", "", testUser))
	require.Equal(t, http.StatusOK, w.Code)
	var resp PaymentInitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "cs_abc", resp.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp.AuthorizationURL)

	w = httptest.NewRecorder()
	h.Initialize(w, newRequest(http.MethodPost, "/api/payments/initialize", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Confirm(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantRef    string
		wantStatus int
	}{
		{name: "settled", target: "/api/payments/confirm?reference=cs_1", wantRef: "cs_1", wantStatus: http.StatusOK},
		{name: "trxref fallback", target: "/api/payments/confirm?trxref=cs_2", wantRef: "cs_2", wantStatus: http.StatusOK},
		{
			name:       "not settled",
			target:     "/api/payments/confirm?reference=cs_1",
			wantRef:    "cs_1",
			err:        domain.PaymentError("payment has not been settled", service.ErrPaymentNotSettled),
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:       "unknown reference",
			target:     "/api/payments/confirm?reference=cs_x",
			wantRef:    "cs_x",
			err:        domain.NewError(domain.KindNotFound, "payment not found", store.ErrPaymentNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "gateway down",
			target:     "/api/payments/confirm?reference=cs_1",
			wantRef:    "cs_1",
			err:        domain.PaymentError("could not verify payment", paystack.ErrGateway),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPaymentHandler(&fakePayments{
				ConfirmFn: func(_ context.Context, _ *domain.UserIdentity, reference string) (*domain.Payment, error) {
					assert.Equal(t, tt.wantRef, reference)
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Payment{Reference: reference, Status: domain.PaymentStatusSuccess, Amount: 500}, nil
				},
			}, nil)

			w := httptest.NewRecorder()
			h.Confirm(w, newRequest(http.MethodGet, tt.target, "", testUser))
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.err == nil {
				var resp PaymentResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.True(t, resp.Premium)
				assert.Equal(t, domain.PaymentStatusSuccess, resp.Status)
			}
		})
	}
}

func TestPaymentHandler_Webhook(t *testing.T) {
	body := `{"event":"charge.success","data":{"reference":"cs_1","status":"success"}}`

	t.Run("passes raw body and signature", func(t *testing.T) {
		h := NewPaymentHandler(&fakePayments{
			WebhookFn: func(_ context.Context, got []byte, signature string) error {
				assert.Equal(t, body, string(got))
				assert.Equal(t, "sig", signature)
				return nil
			},
		}, nil)

		r := newRequest(http.MethodPost, "/api/payments/webhook", body, nil)
		r.Header.Set(paystack.SignatureHeader, "sig")
		w := httptest.NewRecorder()
		h.Webhook(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		h := NewPaymentHandler(&fakePayments{
			WebhookFn: func(context.Context, []byte, string) error {
				return domain.AuthError("invalid webhook signature",
					errors.Join(service.ErrInvalidWebhook, paystack.ErrInvalidSignature))
			},
		}, nil)

		w := httptest.NewRecorder()
		h.Webhook(w, newRequest(http.MethodPost, "/api/payments/webhook", body, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		h := NewPaymentHandler(&fakePayments{}, nil)
		big := strings.Repeat("a", 2<<20)

		w := httptest.NewRecorder()
		h.Webhook(w, newRequest(http.MethodPost, "/api/payments/webhook", big, nil))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestPaymentHandler_Premium(t *testing.T) {
	h := NewPaymentHandler(&fakePayments{
		HasPremiumFn: func(_ context.Context, identity *domain.UserIdentity) (bool, error) {
			if identity.IsAnonymous() {
				return false, domain.AuthError("please log in", domain.ErrUnauthenticated)
			}
			return true, nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Premium(w, newRequest(http.MethodGet, "/api/premium", "", testUser))
	require.Equal(t, http.StatusOK, w.Code)
	var resp PremiumResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Premium)

	w = httptest.NewRecorder()
	h.Premium(w, newRequest(http.MethodGet, "/api/premium", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
