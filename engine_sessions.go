package authcore

import (
	"context"
	"errors"
	"time"
)

// Logout revokes the session behind the presented token. An already
// revoked or expired session is not an error; logging out twice is fine.
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(tokenStr)
	if err != nil {
		return ErrUnauthenticated
	}
	if e.sessions == nil || claims.SessionID == "" {
		return nil
	}

	if err := e.sessions.Delete(ctx, claims.Subject, claims.SessionID); err != nil {
		return err
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogout, true, claims.Subject, claims.SessionID, nil, nil)
	return nil
}

// ListSessions returns the identity's live sessions for a "your devices"
// view.
func (e *Engine) ListSessions(ctx context.Context, identityID string) ([]SessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.sessions == nil {
		return nil, nil
	}

	records, err := e.sessions.List(ctx, identityID)
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, SessionInfo{
			SessionID: rec.SessionID,
			CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
			IP:        rec.IP,
			UserAgent: rec.UserAgent,
		})
	}
	return infos, nil
}

// RevokeSession removes one named session, typically picked from
// [Engine.ListSessions]. Unlike Logout it reports [ErrSessionNotFound]
// for an unknown session so the caller's UI can refresh its list.
func (e *Engine) RevokeSession(ctx context.Context, identityID, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.sessions == nil {
		return ErrSessionNotFound
	}

	ok, err := e.sessions.Exists(ctx, identityID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}

	if err := e.sessions.Delete(ctx, identityID, sessionID); err != nil {
		return err
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionRevoke, true, identityID, sessionID, nil, nil)
	return nil
}

// RevokeAllSessions logs the identity out everywhere.
func (e *Engine) RevokeAllSessions(ctx context.Context, identityID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.sessions == nil {
		return nil
	}

	if err := e.sessions.DeleteAll(ctx, identityID); err != nil {
		return err
	}

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventSessionRevokeAll, true, identityID, "", nil, nil)
	return nil
}

// DeleteAccount removes the identity and every session it owns. Resources
// the account created (courses, uploads, submissions) are the owning
// controllers' problem; this only tears down authentication state.
func (e *Engine) DeleteAccount(ctx context.Context, identityID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if e.sessions != nil {
		if err := e.sessions.DeleteAll(ctx, identityID); err != nil {
			return err
		}
	}

	if err := e.store.Delete(ctx, identityID); err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return ErrIdentityNotFound
		}
		return err
	}

	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAccountDelete, true, identityID, "", nil, nil)
	return nil
}
