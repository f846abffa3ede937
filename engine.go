package authcore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/classware/authcore/password"
	"github.com/classware/authcore/session"
	"github.com/classware/authcore/token"
)

func defaultClock() time.Time { return time.Now() }

// Engine is the authentication core. Construct one through [New] and its
// builder, share it across goroutines, and Close it at shutdown to drain
// the audit queue.
type Engine struct {
	config   Config
	store    CredentialStore
	notifier NotificationSink
	hasher   *password.Hasher
	codec    *token.Codec
	sessions *session.Store
	totp     *totpManager
	audit    *auditDispatcher
	metrics  *Metrics

	// dummyHash absorbs a full verification for unknown emails so a login
	// probe cannot tell a missing account from a wrong password by timing.
	dummyHash string

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// Close stops the audit dispatcher after draining queued events. The
// engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were shed because the queue
// was full. Only non-zero with Audit.DropIfFull set.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// issueSession mints the session record and its signed token for an
// authenticated identity. The record TTL matches the token TTL so Redis
// garbage-collects what the token's expiry already invalidated.
func (e *Engine) issueSession(ctx context.Context, identity Identity) (string, string, error) {
	sessionID := uuid.NewString()
	now := e.now()

	if e.sessions != nil {
		rec := &session.Record{
			SessionID:  sessionID,
			IdentityID: identity.ID,
			CreatedAt:  now.Unix(),
			IP:         clampSessionField(clientIPFromContext(ctx)),
			UserAgent:  clampSessionField(userAgentFromContext(ctx)),
		}
		if err := e.sessions.Save(ctx, rec, e.codec.TTL()); err != nil {
			return "", "", err
		}
	}

	tokenStr, err := e.codec.Issue(identity.ID, sessionID, now)
	if err != nil {
		if e.sessions != nil {
			_ = e.sessions.Delete(ctx, identity.ID, sessionID)
		}
		return "", "", err
	}

	e.metricInc(MetricSessionCreated)
	return tokenStr, sessionID, nil
}

// clampSessionField bounds header-derived values to the session codec's
// field limit; the header is caller-controlled and must never make a
// valid login fail.
func clampSessionField(v string) string {
	if len(v) > session.MaxFieldLength {
		return v[:session.MaxFieldLength]
	}
	return v
}
