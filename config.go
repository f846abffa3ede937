package authcore

import (
	"errors"
	"time"
)

// Config groups all engine tuning. Populate it once, hand it to
// [Builder.WithConfig], and treat it as immutable afterwards; the signing
// secret and hashing work factor are process-wide, read-only state.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	Reset     ResetConfig
	TwoFactor TwoFactorConfig
	Session   SessionConfig
	Account   AccountConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig controls the signed session tokens. Rotating Secret
// invalidates every previously issued token; that is accepted, documented
// behavior, not a bug.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// PasswordConfig carries the argon2id work factor. Raising it after launch
// is safe: hashes are upgraded opportunistically on the next login.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int

	UpgradeOnLogin bool
}

// ResetConfig controls password-reset tokens.
type ResetConfig struct {
	// TTL bounds how long a reset token stays valid. Default 10 minutes.
	TTL time.Duration
}

// TwoFactorConfig controls the TOTP generator used for the login step-up.
type TwoFactorConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
}

// SessionConfig controls Redis-backed session bookkeeping.
//
// With RequireActiveSession set, Authenticate additionally requires the
// token's session record to exist, which gives Logout and RevokeSession
// real revocation semantics. Without it, revocation only removes
// bookkeeping entries and stale tokens die through the
// password-changed-at check or their own expiry.
type SessionConfig struct {
	RedisPrefix          string
	RequireActiveSession bool
}

// AccountConfig controls registration defaults.
type AccountConfig struct {
	DefaultRole Role
	// RequireConfirmedEmail gates login on a confirmed email address.
	RequireConfirmedEmail bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking the request path when
	// the buffer is full; drops are counted and visible via
	// [Engine.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the reference deployment runs
// with. Token.Secret must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:    24 * time.Hour,
			Issuer: "authcore",
			Leeway: 30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Reset: ResetConfig{
			TTL: 10 * time.Minute,
		},
		TwoFactor: TwoFactorConfig{
			Issuer:    "authcore",
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
		},
		Session: SessionConfig{
			RedisPrefix:          "ac",
			RequireActiveSession: true,
		},
		Account: AccountConfig{
			DefaultRole: RoleStudent,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.Token.Issuer == "" {
		return errors.New("token issuer is required")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	if c.Reset.TTL <= 0 {
		return errors.New("reset TTL must be positive")
	}
	if c.Password.MinLength < 6 {
		return errors.New("password minimum length below 6")
	}
	if c.TwoFactor.Digits < 6 || c.TwoFactor.Digits > 8 {
		return errors.New("totp digits out of range")
	}
	if c.TwoFactor.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if c.TwoFactor.Skew < 0 || c.TwoFactor.Skew > 2 {
		return errors.New("totp skew out of range")
	}
	if !ValidRole(c.Account.DefaultRole) {
		return errors.New("default role unknown")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.Token.Secret != nil {
		out.Token.Secret = append([]byte(nil), c.Token.Secret...)
	}
	return out
}
