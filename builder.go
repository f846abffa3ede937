package authcore

import (
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/classware/authcore/password"
	"github.com/classware/authcore/session"
	"github.com/classware/authcore/token"
)

// Builder assembles an [Engine]. A builder is single-use: Build consumes
// it and a second call returns an error.
type Builder struct {
	config   Config
	redis    *redis.Client
	store    CredentialStore
	notifier NotificationSink
	sink     AuditSink

	hasConfig  bool
	metricsSet bool
	built      bool
	err        error
}

// New starts a builder with [DefaultConfig] values.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.hasConfig = true
	return b
}

// WithRedis supplies the Redis client backing session records. Required
// unless Session.RequireActiveSession is disabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore supplies the identity persistence layer. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier supplies the delivery channel for confirmation and reset
// tokens. Required.
func (b *Builder) WithNotifier(sink NotificationSink) *Builder {
	b.notifier = sink
	return b
}

// WithAuditSink supplies the audit destination. Optional; without it an
// enabled audit dispatcher falls back to [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	b.metricsSet = true
	return b
}

// Build validates the assembled configuration and returns a running
// engine. The caller owns the engine and must Close it at shutdown.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, errors.New("builder already consumed")
	}
	b.built = true

	cfg := b.config
	if !b.hasConfig {
		cfg = DefaultConfig()
	}
	if b.metricsSet {
		cfg.Metrics = b.config.Metrics
	}

	if b.store == nil {
		return nil, errors.New("credential store is required")
	}
	if b.notifier == nil {
		return nil, errors.New("notification sink is required")
	}
	if b.redis == nil && cfg.Session.RequireActiveSession {
		return nil, errors.New("redis client is required for active-session enforcement")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.Secret,
		TTL:    cfg.Token.TTL,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	var sessions *session.Store
	if b.redis != nil {
		sessions = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		store:     b.store,
		notifier:  b.notifier,
		hasher:    hasher,
		codec:     codec,
		sessions:  sessions,
		totp:      newTOTPManager(cfg.TwoFactor),
		metrics:   NewMetrics(cfg.Metrics),
		dummyHash: dummyHash,
		now:       defaultClock,
	}
	e.audit = newAuditDispatcher(cfg.Audit, b.sink)

	return e, nil
}
