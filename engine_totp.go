package authcore

import (
	"context"
	"errors"
)

// GenerateTwoFactorSecret provisions a TOTP secret for the identity and
// returns the one-time setup material. The secret stays pending (stored
// but not enabled) until a first code is accepted by
// [Engine.VerifyTwoFactor]; re-provisioning while two-factor is active is
// rejected, the user must disable it first.
func (e *Engine) GenerateTwoFactorSecret(ctx context.Context, identityID string) (*TwoFactorSetup, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := e.findIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity.TwoFactorEnabled {
		return nil, ErrInvalidInput
	}

	secret, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := e.store.SetTwoFactor(ctx, identity.ID, secret, false); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventTwoFactorSetup, true, identity.ID, "", nil, nil)

	return &TwoFactorSetup{
		SecretBase32:    secretBase32,
		ProvisioningURI: e.totp.ProvisionURI(secretBase32, identity.Email),
	}, nil
}

// VerifyTwoFactor checks a TOTP code against the identity's secret. It
// serves two moments in the account's life:
//
//   - with a pending secret, an accepted code activates two-factor and no
//     token is issued;
//   - with two-factor active, an accepted code completes the login
//     step-up and issues the session token.
func (e *Engine) VerifyTwoFactor(ctx context.Context, identityID, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := e.findIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if len(identity.TwoFactorSecret) == 0 {
		return nil, ErrTwoFactorNotConfigured
	}

	ok, err := e.totp.VerifyCode(identity.TwoFactorSecret, code, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorVerify, false, identity.ID, "", ErrInvalidToken, nil)
		return nil, ErrInvalidToken
	}

	if !identity.TwoFactorEnabled {
		if err := e.store.SetTwoFactor(ctx, identity.ID, identity.TwoFactorSecret, true); err != nil {
			return nil, err
		}
		e.metricInc(MetricTwoFactorSuccess)
		e.emitAudit(ctx, auditEventTwoFactorVerify, true, identity.ID, "", nil, func() map[string]string {
			return map[string]string{"phase": "activation"}
		})
		return &LoginResult{Identity: identity.Public()}, nil
	}

	e.metricInc(MetricTwoFactorSuccess)
	e.emitAudit(ctx, auditEventTwoFactorVerify, true, identity.ID, "", nil, nil)
	return e.completeLogin(ctx, identity)
}

// DisableTwoFactor turns the step-up off. A valid current code is
// required so a hijacked session cannot silently weaken the account.
func (e *Engine) DisableTwoFactor(ctx context.Context, identityID, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	identity, err := e.findIdentity(ctx, identityID)
	if err != nil {
		return err
	}
	if !identity.TwoFactorEnabled {
		return ErrTwoFactorNotConfigured
	}

	ok, err := e.totp.VerifyCode(identity.TwoFactorSecret, code, e.now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricTwoFactorFailure)
		return ErrInvalidToken
	}

	if err := e.store.SetTwoFactor(ctx, identity.ID, nil, false); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventTwoFactorDisable, true, identity.ID, "", nil, nil)
	return nil
}

func (e *Engine) findIdentity(ctx context.Context, id string) (Identity, error) {
	if id == "" {
		return Identity{}, ErrInvalidInput
	}
	identity, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, err
	}
	return identity, nil
}
