package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/classware/authcore/internal"
	"github.com/classware/authcore/password"
)

// UpdatePassword changes an authenticated user's password after
// re-verifying the current one. Every outstanding token dies with the
// change: tokens issued before PasswordChangedAt are rejected by
// Authenticate, and the session records behind them are removed. A fresh
// token is issued so the caller's own session survives the rotation.
func (e *Engine) UpdatePassword(ctx context.Context, identityID, current, next string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := e.findIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	ok, err := e.hasher.Verify(current, identity.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, identity.ID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if err := e.applyNewPassword(ctx, identity.ID, next); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return nil, err
	}

	tokenStr, sessionID, err := e.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, identity.ID, sessionID, nil, nil)
	return &LoginResult{Token: tokenStr, Identity: identity.Public()}, nil
}

// ForgotPassword starts the reset flow. A token is mailed only when the
// email belongs to an account; unknown emails get the same nil answer
// after a randomized delay, so the endpoint confirms nothing.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			e.enumerationDelay(ctx)
			return nil
		}
		return err
	}

	raw, hash, err := internal.NewSecretToken()
	if err != nil {
		return err
	}

	expiresAt := e.now().Add(e.config.Reset.TTL)
	if err := e.store.SetResetToken(ctx, identity.ID, hash, expiresAt); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password with this code (valid for %s): %s\n",
		identity.Username, e.config.Reset.TTL, raw,
	)
	if err := e.notifier.Send(ctx, identity.Email, "Password reset", body); err != nil {
		if clearErr := e.store.ClearResetToken(ctx, identity.ID); clearErr != nil {
			log.Print("authcore: reset token cleanup failed after delivery failure")
		}
		e.metricInc(MetricNotificationFailure)
		return errors.Join(ErrNotificationFailed, err)
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordForgot, true, identity.ID, "", nil, nil)
	return nil
}

// ResetPassword consumes a reset token, installs the new password, and
// issues a fresh session token so the user lands logged in. The policy
// check runs before the consume so a too-short password does not burn
// the single-use token. Expired, unknown, and already-consumed tokens
// are all [ErrInvalidToken].
func (e *Engine) ResetPassword(ctx context.Context, rawToken, next string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if rawToken == "" {
		return nil, ErrInvalidToken
	}
	if len(next) < e.config.Password.MinLength {
		return nil, ErrPasswordPolicy
	}

	identity, err := e.store.ConsumeResetToken(ctx, internal.HashSecretToken(rawToken), e.now())
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventPasswordReset, false, "", "", ErrInvalidToken, nil)
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if err := e.applyNewPassword(ctx, identity.ID, next); err != nil {
		e.metricInc(MetricResetFailure)
		return nil, err
	}

	tokenStr, sessionID, err := e.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, identity.ID, sessionID, nil, nil)
	return &LoginResult{Token: tokenStr, Identity: identity.Public()}, nil
}

// applyNewPassword hashes and stores the replacement password, stamps the
// change time, and revokes every live session for the identity.
func (e *Engine) applyNewPassword(ctx context.Context, identityID, next string) error {
	hash, err := e.hasher.Hash(next)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return ErrPasswordPolicy
		}
		return err
	}

	// Truncated to seconds to match the resolution of token issued-at
	// claims; a token minted in the same second as the change stays valid.
	changedAt := e.now().Truncate(time.Second)
	if err := e.store.UpdatePasswordHash(ctx, identityID, hash, changedAt); err != nil {
		return err
	}

	if e.sessions != nil {
		if err := e.sessions.DeleteAll(ctx, identityID); err != nil {
			return err
		}
	}
	return nil
}
