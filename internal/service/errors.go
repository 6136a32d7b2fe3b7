package service

import "errors"

// Service sentinel errors. They travel inside *domain.Error values so
// callers can branch on the kind and still match the precise cause with
// errors.Is.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrPremiumRequired indicates the request exceeds what a free account may generate.
	ErrPremiumRequired = errors.New("premium access required")

	// ErrPaymentsDisabled indicates no payment gateway is configured.
	ErrPaymentsDisabled = errors.New("payments are not enabled")

	// ErrPaymentNotSettled indicates the gateway reports the payment as not (yet) successful.
	// API layer should map this to HTTP 402 Payment Required.
	ErrPaymentNotSettled = errors.New("payment has not been settled")

	// ErrPaymentMismatch indicates the settled amount or currency differs from what was charged.
	ErrPaymentMismatch = errors.New("settled amount does not match payment")

	// ErrInvalidWebhook indicates a webhook delivery failed authentication.
	ErrInvalidWebhook = errors.New("invalid webhook delivery")
)
