package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID int

const (
	// MetricRegisterSuccess counts completed registrations.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected for a taken
	// email or username.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts logins that issued a token.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected credentials.
	MetricLoginFailure
	// MetricTwoFactorRequired counts logins gated on a step-up.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts accepted TOTP codes.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected TOTP codes.
	MetricTwoFactorFailure
	// MetricConfirmSuccess counts consumed confirmation tokens.
	MetricConfirmSuccess
	// MetricConfirmFailure counts rejected confirmation tokens.
	MetricConfirmFailure
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure counts rejected password changes.
	MetricPasswordChangeFailure
	// MetricResetRequest counts reset tokens generated.
	MetricResetRequest
	// MetricResetSuccess counts consumed reset tokens.
	MetricResetSuccess
	// MetricResetFailure counts rejected reset tokens.
	MetricResetFailure
	// MetricNotificationFailure counts sink delivery failures.
	MetricNotificationFailure
	// MetricSessionCreated counts session records written.
	MetricSessionCreated
	// MetricSessionRevoked counts session records removed.
	MetricSessionRevoked
	// MetricAccountDeleted counts deleted identities.
	MetricAccountDeleted

	metricIDCount
)

// Metrics holds atomic counters. A nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies every counter. Snapshots taken under concurrent load are
// internally consistent per counter, not across counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
