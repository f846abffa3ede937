package authcore

import (
	"context"
	"errors"
	"log"
)

// Login checks an email/password pair and issues a session token. Unknown
// email and wrong password both come back as [ErrInvalidCredentials], with
// a hash verification burned on the unknown-email path so the two are
// indistinguishable by timing.
//
// For accounts with two-factor enabled no token is issued: the result
// carries TwoFactorRequired and the identity id for the
// [Engine.VerifyTwoFactor] step-up, and the error is
// [ErrTwoFactorRequired].
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			_, _ = e.hasher.Verify(plaintext, e.dummyHash)
			return nil, e.loginFailure(ctx, "", ErrInvalidCredentials)
		}
		return nil, err
	}

	ok, err := e.hasher.Verify(plaintext, identity.PasswordHash)
	if err != nil || !ok {
		return nil, e.loginFailure(ctx, identity.ID, ErrInvalidCredentials)
	}

	if e.config.Account.RequireConfirmedEmail && !identity.EmailConfirmed {
		return nil, e.loginFailure(ctx, identity.ID, ErrEmailNotConfirmed)
	}

	e.maybeUpgradeHash(ctx, identity, plaintext)

	if identity.TwoFactorEnabled {
		e.metricInc(MetricTwoFactorRequired)
		e.emitAudit(ctx, auditEventTwoFactorRequired, true, identity.ID, "", nil, nil)
		return &LoginResult{TwoFactorRequired: true, IdentityID: identity.ID}, ErrTwoFactorRequired
	}

	return e.completeLogin(ctx, identity)
}

func (e *Engine) loginFailure(ctx context.Context, identityID string, cause error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, identityID, "", cause, nil)
	return cause
}

// completeLogin issues the session token once every credential gate has
// passed. Only a completed login stamps last-login; token issuance after
// a password change or reset does not count.
func (e *Engine) completeLogin(ctx context.Context, identity Identity) (*LoginResult, error) {
	tokenStr, sessionID, err := e.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	// Last-login is bookkeeping; a write failure must not void an
	// otherwise successful login.
	if err := e.store.SetLastLogin(ctx, identity.ID, e.now()); err != nil {
		log.Print("authcore: last-login stamp failed")
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, sessionID, nil, nil)

	return &LoginResult{Token: tokenStr, Identity: identity.Public()}, nil
}

// maybeUpgradeHash re-derives the stored hash under the current work
// factor when the configuration has been strengthened since it was
// written. PasswordChangedAt is preserved: an upgrade is not a password
// change and must not invalidate outstanding tokens.
func (e *Engine) maybeUpgradeHash(ctx context.Context, identity Identity, plaintext string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}

	needs, err := e.hasher.NeedsUpgrade(identity.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := e.hasher.Hash(plaintext)
	if err != nil {
		log.Print("authcore: password hash upgrade generation failed")
		return
	}
	if err := e.store.UpdatePasswordHash(ctx, identity.ID, newHash, identity.PasswordChangedAt); err != nil {
		log.Print("authcore: password hash upgrade update failed")
	}
}
