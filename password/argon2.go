package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// ErrTooShort is returned by Hash when the plaintext is below the
// configured minimum length.
var ErrTooShort = errors.New("password below minimum length")

// Config carries the argon2id work factor and the plaintext length policy.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// Hasher derives and verifies argon2id password hashes. It is stateless
// and safe for concurrent use.
type Hasher struct {
	config Config
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// New validates cfg against the floor parameters and returns a Hasher.
func New(cfg Config) (*Hasher, error) {
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("memory below minimum")
	}
	if cfg.Time < minTimeCost {
		return nil, errors.New("time cost below minimum")
	}
	if cfg.Parallelism < minParallelism {
		return nil, errors.New("parallelism below minimum")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("salt length below minimum")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("key length below minimum")
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 6
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives a salted argon2id hash in PHC string format. The plaintext
// is used byte-for-byte as provided, with no Unicode normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < h.config.MinLength {
		return "", ErrTooShort
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the hash with the parameters embedded in encodedHash
// and compares in constant time.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was derived with a weaker work
// factor than the current configuration.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if h.config.Memory > parsed.memory {
		return true, nil
	}
	if h.config.Time > parsed.time {
		return true, nil
	}
	if h.config.Parallelism > parsed.parallelism {
		return true, nil
	}
	if h.config.KeyLength != parsed.keyLength {
		return true, nil
	}

	return false, nil
}

func parsePHC(encodedHash string) (*parsedHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	return &parsedHash{
		memory:      params.memory,
		time:        params.time,
		parallelism: params.parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parseParams(section string) (*phcParams, error) {
	out := &phcParams{}
	seen := map[string]bool{}

	for _, pair := range strings.Split(section, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || seen[kv[0]] {
			return nil, errors.New("invalid parameter section")
		}
		seen[kv[0]] = true

		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return nil, errors.New("invalid parameter value")
		}

		switch kv[0] {
		case "m":
			out.memory = uint32(v)
		case "t":
			out.time = uint32(v)
		case "p":
			if v > 255 {
				return nil, errors.New("invalid parallelism value")
			}
			out.parallelism = uint8(v)
		default:
			return nil, errors.New("unknown parameter")
		}
	}

	if !seen["m"] || !seen["t"] || !seen["p"] {
		return nil, errors.New("missing parameter")
	}
	if out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return nil, errors.New("zero parameter")
	}

	return out, nil
}
