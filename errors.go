package authcore

import "errors"

var (
	// ErrDuplicateEmail is returned by Register when the email or username
	// is already taken.
	ErrDuplicateEmail = errors.New("account already exists")
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password so login cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers confirmation tokens, reset tokens, and TOTP
	// codes that are unknown, already consumed, or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthenticated is returned by Authenticate for a missing, invalid,
	// or stale bearer token.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailNotConfirmed is returned by Login when confirmed email is
	// required and the account has not confirmed yet.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrTwoFactorRequired signals that credentials checked out but a TOTP
	// step-up must complete before a token is issued.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrTwoFactorNotConfigured is returned when a two-factor operation
	// targets an identity without a provisioned secret.
	ErrTwoFactorNotConfigured = errors.New("two-factor not configured")
	// ErrEmailAlreadyConfirmed is returned by ResendConfirmation for an
	// account whose email is already confirmed.
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")
	// ErrPasswordPolicy is returned when a password fails the configured
	// minimum-length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrNotificationFailed is returned when the notification sink could not
	// deliver a token. The stored token hash is cleared first.
	ErrNotificationFailed = errors.New("notification delivery failed")
	// ErrIdentityNotFound is returned by operations addressing an identity
	// id that does not exist.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrSessionNotFound is returned when a session record does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput is returned for malformed registration or operation
	// input (empty fields, bad email, unknown role).
	ErrInvalidInput = errors.New("invalid input")
	// ErrEngineNotReady is returned when the engine was not built through
	// Builder.Build or lacks a required dependency.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrStoreNotFound must be returned by CredentialStore lookups that
	// match nothing, including the losing side of a racing Consume.
	ErrStoreNotFound = errors.New("credential store: not found")
	// ErrStoreDuplicate must be returned by CredentialStore.Create on an
	// email or username collision.
	ErrStoreDuplicate = errors.New("credential store: duplicate identity")
)
