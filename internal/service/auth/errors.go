package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidCredentials indicates the identity provider rejected the login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLoginUnavailable indicates no identity provider is configured
	ErrLoginUnavailable = errors.New("login is not configured")

	// ErrRegistrationUnavailable indicates the identity provider has no
	// registration endpoint configured
	ErrRegistrationUnavailable = errors.New("registration is not configured")

	// ErrAccountExists indicates the email is already registered
	ErrAccountExists = errors.New("account already exists")

	// ErrRegistrationRejected indicates the identity provider refused the
	// new account, for example because of its password policy
	ErrRegistrationRejected = errors.New("registration rejected")
)
