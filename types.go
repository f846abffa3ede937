package authcore

import (
	"context"
	"time"
)

// Role classifies an identity for role-based access checks.
type Role string

const (
	// RoleStudent is the default role assigned at registration.
	RoleStudent Role = "student"
	// RoleLecturer marks accounts that create and grade assignments.
	RoleLecturer Role = "lecturer"
	// RoleAdmin bypasses ownership checks and manages accounts in bulk.
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is one of the roles the platform knows.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Identity is the full account record exchanged with the [CredentialStore].
// It carries credential and token hashes and must never cross an
// outward-facing boundary; use [Identity.Public] for responses.
//
// A zero ConfirmTokenHash or ResetTokenHash means no token is outstanding:
// both hashes are SHA-256 digests of 256-bit random values, so the zero
// value cannot collide with a real token.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     Role

	PasswordHash      string
	PasswordChangedAt time.Time

	EmailConfirmed   bool
	ConfirmTokenHash [32]byte

	ResetTokenHash [32]byte
	ResetExpiresAt time.Time

	TwoFactorSecret  []byte
	TwoFactorEnabled bool

	LastLoginAt time.Time
	CreatedAt   time.Time
}

// PublicIdentity is the projection safe to return to clients. Password and
// token hashes and the two-factor secret are deliberately absent.
type PublicIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public returns the outward-facing projection of the identity.
func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:       i.ID,
		Username: i.Username,
		Email:    i.Email,
		Role:     i.Role,
	}
}

// CredentialStore is the persistence interface callers must implement to
// integrate authcore with their user database. The engine treats it as the
// single source of truth for identities.
//
// ConsumeConfirmationToken and ConsumeResetToken must be atomic
// match-and-clear operations: of two racing calls presenting the same hash,
// exactly one succeeds and the loser observes [ErrStoreNotFound].
// ConsumeConfirmationToken additionally marks the email confirmed in the
// same write; ConsumeResetToken clears the expiry alongside the hash and
// fails for a token past its expiry. Everything else follows
// last-write-wins document semantics.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)

	// Create persists a new identity. It fails with [ErrStoreDuplicate]
	// when the email or username is already taken.
	Create(ctx context.Context, identity Identity) error

	// UpdatePasswordHash replaces the password hash and records when the
	// password changed; the guard rejects tokens issued before changedAt.
	UpdatePasswordHash(ctx context.Context, id, newHash string, changedAt time.Time) error

	SetConfirmationToken(ctx context.Context, id string, hash [32]byte) error
	ConsumeConfirmationToken(ctx context.Context, hash [32]byte) (Identity, error)
	ClearConfirmationToken(ctx context.Context, id string) error

	SetResetToken(ctx context.Context, id string, hash [32]byte, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, hash [32]byte, now time.Time) (Identity, error)
	ClearResetToken(ctx context.Context, id string) error

	SetTwoFactor(ctx context.Context, id string, secret []byte, enabled bool) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error

	// Delete removes the identity. Cascading deletion of owned resources
	// (courses, videos, submissions) belongs to the resource controllers.
	Delete(ctx context.Context, id string) error
}

// NotificationSink delivers confirmation and reset tokens to the account
// holder. Delivery failures are surfaced to the engine, which clears the
// stored token hash so an unsendable token can never be consumed.
type NotificationSink interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// RegisterRequest is the input for [Engine.Register]. Role defaults to
// [RoleStudent] when empty.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// RegisterResult is returned by [Engine.Register]. ConfirmationSent is
// false when the notification sink rejected the confirmation email; the
// account exists but must request a fresh token via
// [Engine.ResendConfirmation].
type RegisterResult struct {
	Token            string
	Identity         PublicIdentity
	ConfirmationSent bool
}

// LoginResult is returned by every operation that ends with a signed
// token: [Engine.Login], [Engine.VerifyTwoFactor], [Engine.UpdatePassword],
// and [Engine.ResetPassword]. When TwoFactorRequired is set,
// authentication is incomplete: Token is empty and IdentityID carries the
// subject for the step-up call.
type LoginResult struct {
	Token    string
	Identity PublicIdentity

	TwoFactorRequired bool
	IdentityID        string
}

// TwoFactorSetup holds the base32 secret and otpauth:// provisioning URI
// returned by [Engine.GenerateTwoFactorSecret]. The secret is shown once
// and never retrievable afterwards.
type TwoFactorSetup struct {
	SecretBase32    string
	ProvisioningURI string
}

// SessionInfo describes one active session for [Engine.ListSessions].
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
