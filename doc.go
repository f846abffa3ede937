// Package authcore implements the identity and access core of a
// teaching-and-learning platform: registration with email confirmation,
// login with an optional TOTP step-up, signed session tokens, password
// reset and change, session bookkeeping with revocation, and the
// role/ownership checks every resource controller relies on.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the [CredentialStore] and [NotificationSink] collaborator interfaces, and
// value types (LoginResult, SessionInfo, AuditEvent, MetricsSnapshot).
// Token signing lives in token/, password hashing in password/, session
// record persistence in session/, and HTTP adaptation in middleware/.
// Secret-token generation and hashing live under internal/ and are never
// exported.
//
// # What this package must NOT do
//
//   - Own user persistence. The [CredentialStore] is injected; assignment,
//     video, and course controllers are external and only consume
//     [Engine.Authenticate] and the RequireRole / RequireOwnerOrRole
//     predicates.
//   - Deliver email. Confirmation and reset tokens are handed to the
//     injected [NotificationSink]; a sink failure must never leave a usable
//     token hash behind in the store.
//   - Return password hashes, stored token hashes, or the two-factor secret
//     in any outward-facing projection.
package authcore
