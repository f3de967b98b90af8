package token

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// JWTSecretEnvKey is the env var name for the HS256 signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	JWTSecretEnvKey = "CONDUIT_JWT_SECRET"

	// MinSecretBytes is the smallest accepted HMAC-SHA256 signing secret.
	MinSecretBytes = 32

	fingerprintLen = 12
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SecretFromEnv returns the trimmed bytes of env var key, enforcing a minimum byte length.
// Missing or blank -> ErrSecretMissing. Too short -> ErrSecretTooShort.
func SecretFromEnv(key string, minBytes int) ([]byte, error) {
	return ParseSecret(os.Getenv(key), minBytes)
}

// ParseSecret applies the SecretFromEnv rules to a raw value.
// Length is measured in bytes, not runes, because the secret is used as raw key material.
func ParseSecret(raw string, minBytes int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// Fingerprint returns a short, non-reversible identifier for a token.
// It is safe to log; the token itself never is.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	return HashSHA256Hex(tok)[:fingerprintLen]
}
