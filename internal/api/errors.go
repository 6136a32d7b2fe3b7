package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/cardsmith/internal/api/shared"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/redact"
	"github.com/phrazzld/cardsmith/internal/service"
	"github.com/phrazzld/cardsmith/internal/service/auth"
	"github.com/phrazzld/cardsmith/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error kind. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Cases that share a kind but not a status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrPaymentNotSettled),
		errors.Is(err, service.ErrPaymentMismatch):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrPaymentsDisabled),
		errors.Is(err, auth.ErrLoginUnavailable),
		errors.Is(err, auth.ErrRegistrationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrAccountExists):
		return http.StatusConflict
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPayment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err. Messages of
// domain errors are written for callers and are passed through redaction;
// anything else gets a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	}

	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" && de.Kind != domain.KindInternal {
		return redact.String(de.Message)
	}
	return "An unexpected error occurred"
}

// HandleError writes the error response for err: the mapped status, the
// error kind, a safe message and, for persistence failures, how many
// flashcards were saved.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)

	kind := domain.KindOf(err)
	if kind == domain.KindInternal && errors.Is(err, context.DeadlineExceeded) {
		kind = "timeout"
	}
	opts := []shared.ResponseOption{shared.WithKind(string(kind))}
	if saved, ok := store.SavedCount(err); ok {
		opts = append(opts, shared.WithSaved(saved))
	}
	if kind == domain.KindAuth {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// decodeAndValidate reads a JSON body into v and validates it, writing a
// 400 response and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err,
			shared.WithKind(string(domain.KindValidation)))
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err,
			shared.WithKind(string(domain.KindValidation)))
		return false
	}
	return true
}
