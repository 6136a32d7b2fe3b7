package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/service"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"github.com/phrazzld/cardsmith/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ValidationError("notes are empty", domain.ErrEmptyNotes), http.StatusBadRequest},
		{"auth", domain.AuthError("please log in", domain.ErrUnauthenticated), http.StatusUnauthorized},
		{"forbidden", domain.NewError(domain.KindForbidden, "premium required", service.ErrPremiumRequired), http.StatusForbidden},
		{"not found", domain.NewError(domain.KindNotFound, "payment not found", store.ErrPaymentNotFound), http.StatusNotFound},
		{"payment not settled", domain.PaymentError("payment not settled", service.ErrPaymentNotSettled), http.StatusPaymentRequired},
		{"payment mismatch", domain.PaymentError("payment mismatch", service.ErrPaymentMismatch), http.StatusPaymentRequired},
		{"payments disabled", domain.PaymentError("payments are not available", service.ErrPaymentsDisabled), http.StatusServiceUnavailable},
		{"gateway failure", domain.PaymentError("could not start payment", errors.New("boom")), http.StatusBadGateway},
		{"login unavailable", domain.AuthError("login is not available", auth.ErrLoginUnavailable), http.StatusServiceUnavailable},
		{"registration unavailable", domain.AuthError("registration is not available", auth.ErrRegistrationUnavailable), http.StatusServiceUnavailable},
		{"account exists", domain.ValidationError("an account with this email already exists", auth.ErrAccountExists), http.StatusConflict},
		{"inference", domain.InferenceError("question 2 failed", errors.New("boom")), http.StatusInternalServerError},
		{"persistence", domain.PersistenceError("saved 2 of 5 flashcards", errors.New("boom")), http.StatusInternalServerError},
		{"deadline", domain.NewError(domain.KindInternal, "cancelled", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "notes are empty",
		GetSafeErrorMessage(domain.ValidationError("notes are empty", domain.ErrEmptyNotes)))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("pq: relation flashcards does not exist")))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(domain.NewError(domain.KindInternal, "internal detail", nil)))
	assert.Equal(t, "The request timed out",
		GetSafeErrorMessage(fmt.Errorf("asking: %w", context.DeadlineExceeded)))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestHandleError_PartialSave(t *testing.T) {
	partial := &store.PartialSaveError{Saved: 2, Total: 5, Err: errors.New("disk full")}
	err := domain.PersistenceError("saved 2 of 5 flashcards", partial)

	w := httptest.NewRecorder()
	HandleError(w, httptest.NewRequest(http.MethodPost, "/api/flashcards", nil), err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "persistence", resp.Kind)
	assert.Equal(t, "saved 2 of 5 flashcards", resp.Error)
	require.NotNil(t, resp.Saved)
	assert.Equal(t, 2, *resp.Saved)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestHandleError_Timeout(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, httptest.NewRequest(http.MethodPost, "/api/flashcards", nil),
		domain.NewError(domain.KindInternal, "generation cancelled", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "timeout", resp.Kind)
	assert.Nil(t, resp.Saved)
}

func TestSanitizeValidationError(t *testing.T) {
	type body struct {
		Email string `validate:"required,email"`
		Count int    `validate:"gte=0"`
	}
	v := validator.New()

	err := v.Struct(body{Email: "", Count: 1})
	require.Error(t, err)
	assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))

	err = v.Struct(body{Email: "user@example.com", Count: -1})
	require.Error(t, err)
	assert.Equal(t, "Invalid Count: too small", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
