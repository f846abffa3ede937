package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classware/authcore/internal"
	"github.com/classware/authcore/password"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
)

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidInput
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidInput
	}
	return email, nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return ErrInvalidInput
	}
	if strings.TrimSpace(username) != username {
		return ErrInvalidInput
	}
	return nil
}

// Register creates a new identity and mails its email-confirmation token.
// A session token is issued immediately unless the configuration requires
// a confirmed email before login.
//
// On notification failure the stored confirmation hash is cleared and the
// result comes back with ConfirmationSent false alongside
// [ErrNotificationFailed]; the account itself is kept.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}
	if !ValidRole(role) {
		return nil, ErrInvalidInput
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, ErrPasswordPolicy
		}
		return nil, err
	}

	now := e.now()
	identity := Identity{
		ID:                uuid.NewString(),
		Username:          req.Username,
		Email:             email,
		Role:              role,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		CreatedAt:         now,
	}

	if err := e.store.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrStoreDuplicate) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegister, false, "", "", ErrDuplicateEmail, nil)
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	result := &RegisterResult{Identity: identity.Public()}

	if !e.config.Account.RequireConfirmedEmail {
		tokenStr, _, err := e.issueSession(ctx, identity)
		if err != nil {
			return nil, err
		}
		result.Token = tokenStr
	}

	sendErr := e.sendConfirmation(ctx, identity)
	result.ConfirmationSent = sendErr == nil

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, identity.ID, "", sendErr, func() map[string]string {
		return map[string]string{"role": string(role)}
	})

	if sendErr != nil {
		return result, sendErr
	}
	return result, nil
}

// sendConfirmation mints a fresh single-use confirmation token, persists
// its hash, and hands the raw value to the notification sink.
func (e *Engine) sendConfirmation(ctx context.Context, identity Identity) error {
	raw, hash, err := internal.NewSecretToken()
	if err != nil {
		return err
	}
	if err := e.store.SetConfirmationToken(ctx, identity.ID, hash); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address with this code: %s\n",
		identity.Username, raw,
	)
	if err := e.notifier.Send(ctx, identity.Email, "Confirm your email", body); err != nil {
		if clearErr := e.store.ClearConfirmationToken(ctx, identity.ID); clearErr != nil {
			log.Print("authcore: confirmation token cleanup failed after delivery failure")
		}
		e.metricInc(MetricNotificationFailure)
		return errors.Join(ErrNotificationFailed, err)
	}
	return nil
}

// ConfirmEmail consumes a confirmation token. The store's match-and-clear
// guarantees a token works exactly once, even under concurrent retries.
func (e *Engine) ConfirmEmail(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if rawToken == "" {
		return ErrInvalidToken
	}

	identity, err := e.store.ConsumeConfirmationToken(ctx, internal.HashSecretToken(rawToken))
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventConfirmEmail, false, "", "", ErrInvalidToken, nil)
			return ErrInvalidToken
		}
		return err
	}

	e.metricInc(MetricConfirmSuccess)
	e.emitAudit(ctx, auditEventConfirmEmail, true, identity.ID, "", nil, nil)
	return nil
}

// ResendConfirmation issues a replacement confirmation token, invalidating
// any earlier one. An unknown email returns nil so the endpoint cannot be
// used to probe for accounts.
func (e *Engine) ResendConfirmation(ctx context.Context, email string) error {
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
	if identity.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}

	if err := e.sendConfirmation(ctx, identity); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventResendConfirm, true, identity.ID, "", nil, nil)
	return nil
}

// enumerationDelay holds a response for a short randomized interval so the
// latency of the found and not-found paths is indistinguishable.
func (e *Engine) enumerationDelay(ctx context.Context) {
	d := 80*time.Millisecond + time.Duration(e.now().UnixNano()%int64(120*time.Millisecond))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
