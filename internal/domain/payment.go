package domain

import (
	"errors"
	"time"
)

// PaymentStatus is the settlement state of a payment as last verified.
type PaymentStatus string

// Valid PaymentStatus values
const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment-specific validation errors
var (
	ErrPaymentReferenceEmpty = errors.New("payment reference cannot be empty")
	ErrPaymentUserIDEmpty    = errors.New("payment user ID cannot be empty")
	ErrPaymentAmountInvalid  = errors.New("payment amount must be positive")
	ErrInvalidPaymentStatus  = errors.New("invalid payment status")
)

// IsValid checks if the payment status is one of the known values.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// Payment records a one-time premium purchase. Amount is in the currency's
// minor unit.
type Payment struct {
	Reference        string        `json:"reference"`
	UserID           string        `json:"user_id"`
	Email            string        `json:"email"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency,omitempty"`
	Status           PaymentStatus `json:"status"`
	AuthorizationURL string        `json:"authorization_url,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	VerifiedAt       *time.Time    `json:"verified_at,omitempty"`
}

// NewPayment creates a pending Payment.
func NewPayment(reference, userID, email string, amount int64, currency string) (*Payment, error) {
	p := &Payment{
		Reference: reference,
		UserID:    userID,
		Email:     email,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks if the Payment has valid data.
func (p *Payment) Validate() error {
	if p.Reference == "" {
		return ErrPaymentReferenceEmpty
	}
	if p.UserID == "" {
		return ErrPaymentUserIDEmpty
	}
	if p.Amount <= 0 {
		return ErrPaymentAmountInvalid
	}
	if !p.Status.IsValid() {
		return ErrInvalidPaymentStatus
	}
	return nil
}

// Entitlement grants premium access to a user. It is created once the
// payment identified by Reference has been verified as settled.
type Entitlement struct {
	UserID    string    `json:"user_id"`
	Reference string    `json:"reference"`
	GrantedAt time.Time `json:"granted_at"`
}
