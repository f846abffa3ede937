package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned by Verify for any token that is malformed,
// tampered with, expired, or signed with a different secret.
var ErrInvalid = errors.New("invalid token")

// Config carries the signing secret and validity window. Rotating the
// secret invalidates all outstanding tokens.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// Claims is the payload of a session token: the subject identity, the
// session record it belongs to, and the registered time bounds.
type Claims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Issue signs a token for subject, bound to sessionID, valid for the
// configured TTL from now.
func (c *Codec) Issue(subject, sessionID string, now time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}

	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.config.Secret)
}

// Verify parses and validates a presented token. It fails with [ErrInvalid]
// on any signature, expiry, issuer, or format problem; callers never learn
// which.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.config.Leeway),
		jwt.WithIssuer(c.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalid
	}

	return claims, nil
}

// TTL exposes the configured validity window, used by the engine to bound
// session-record lifetimes.
func (c *Codec) TTL() time.Duration {
	return c.config.TTL
}
