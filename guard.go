package authcore

import (
	"context"
	"time"
)

// Authenticate resolves a bearer token to its identity. It fails with
// [ErrUnauthenticated] for any token that is malformed, expired, signed
// with another secret, issued before the account's last password change,
// or (with active-session enforcement on) bound to a revoked session.
// Callers never learn which check failed.
func (e *Engine) Authenticate(ctx context.Context, tokenStr string) (Identity, error) {
	if e == nil {
		return Identity{}, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(tokenStr)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	identity, err := e.store.FindByID(ctx, claims.Subject)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	// Issued-at carries second resolution on the wire, so the comparison
	// truncates both sides; otherwise a token minted in the same second as
	// a password change would flap between valid and stale.
	issuedAt := claims.IssuedAt.Time.Truncate(time.Second)
	if issuedAt.Before(identity.PasswordChangedAt.Truncate(time.Second)) {
		return Identity{}, ErrUnauthenticated
	}

	if e.config.Session.RequireActiveSession {
		if e.sessions == nil || claims.SessionID == "" {
			return Identity{}, ErrUnauthenticated
		}
		live, err := e.sessions.Exists(ctx, identity.ID, claims.SessionID)
		if err != nil || !live {
			return Identity{}, ErrUnauthenticated
		}
	}

	return identity, nil
}

// RequireRole passes when the identity holds one of the listed roles.
func RequireRole(identity Identity, roles ...Role) error {
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// RequireOwnerOrRole passes when the identity owns the resource or holds
// one of the bypass roles. Controllers call it with the resource's owner
// id and typically [RoleAdmin] as the bypass.
func RequireOwnerOrRole(identity Identity, ownerID string, bypass ...Role) error {
	if ownerID != "" && identity.ID == ownerID {
		return nil
	}
	return RequireRole(identity, bypass...)
}
