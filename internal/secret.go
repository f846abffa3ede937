package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const secretTokenBytes = 32

// NewSecretToken returns a fresh single-use token and the digest to
// persist. The raw value is shown to the user exactly once; only the hash
// is stored, so a database read cannot be reversed into the token. Tokens
// carry 256 bits of entropy, which is why a fast unsalted hash is enough.
func NewSecretToken() (raw string, hash [32]byte, err error) {
	var buf [secretTokenBytes]byte
	if _, err = rand.Read(buf[:]); err != nil {
		return "", hash, err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf[:])
	return raw, HashSecretToken(raw), nil
}

// HashSecretToken digests a presented token for lookup against the stored
// hash.
func HashSecretToken(raw string) [32]byte {
	return sha256.Sum256([]byte(raw))
}
