package session

import (
	"os"
	"strings"
	"time"

	"conduit/cmd/security/token"
)

// Format selects the token wire format.
type Format string

const (
	FormatPaseto Format = "paseto"
	FormatJWT    Format = "jwt"
)

// Config defines runtime configuration for token issuance and session tracking.
type Config struct {
	// Issuer is set as "iss" on issued tokens and required on decode.
	Issuer string

	// TokenTTL is applied once, when a claim is constructed.
	TokenTTL time.Duration

	Format Format

	// PasetoV4SecretKeyHex is the hex-encoded Ed25519 secret key for v4.public tokens.
	PasetoV4SecretKeyHex string

	// JWTSecret is the HS256 signing secret.
	JWTSecret []byte

	// KeyPrefix is prepended to the user id to form the session record key.
	KeyPrefix string

	// StoreTimeout bounds every session store call made on behalf of a request.
	StoreTimeout time.Duration
}

// DefaultConfig returns development defaults. Signing keys are not set.
func DefaultConfig() Config {
	return Config{
		Issuer:       "conduit",
		TokenTTL:     24 * time.Hour,
		Format:       FormatPaseto,
		KeyPrefix:    "session:",
		StoreTimeout: 2 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - CONDUIT_PASETO_V4_SECRET_KEY_HEX (format paseto)
//   - CONDUIT_JWT_SECRET, at least 32 bytes (format jwt)
//
// Optional:
//   - CONDUIT_AUTH_ISSUER
//   - CONDUIT_AUTH_TOKEN_TTL
//   - CONDUIT_AUTH_TOKEN_FORMAT (paseto | jwt)
//   - CONDUIT_AUTH_KEY_PREFIX
//   - CONDUIT_AUTH_STORE_TIMEOUT
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("CONDUIT_AUTH_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("CONDUIT_AUTH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			return Config{}, ErrConfig
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("CONDUIT_AUTH_TOKEN_FORMAT"); v != "" {
		f := Format(strings.ToLower(strings.TrimSpace(v)))
		switch f {
		case FormatPaseto, FormatJWT:
			cfg.Format = f
		default:
			return Config{}, ErrConfig
		}
	}

	cfg.KeyPrefix = KeyPrefixFromEnv()

	if v := os.Getenv("CONDUIT_AUTH_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.StoreTimeout = d
	}

	switch cfg.Format {
	case FormatPaseto:
		cfg.PasetoV4SecretKeyHex = strings.TrimSpace(os.Getenv("CONDUIT_PASETO_V4_SECRET_KEY_HEX"))
		if cfg.PasetoV4SecretKeyHex == "" {
			return Config{}, ErrConfig
		}
	case FormatJWT:
		secret, err := token.SecretFromEnv(token.JWTSecretEnvKey, token.MinSecretBytes)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.JWTSecret = secret
	}

	return cfg, nil
}

// KeyPrefixFromEnv returns CONDUIT_AUTH_KEY_PREFIX, or the default "session:" when unset.
// It needs no signing key, so store administration can use it alone.
func KeyPrefixFromEnv() string {
	if v, ok := os.LookupEnv("CONDUIT_AUTH_KEY_PREFIX"); ok {
		return v
	}
	return DefaultConfig().KeyPrefix
}
