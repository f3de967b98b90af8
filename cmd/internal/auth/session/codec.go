package session

import "fmt"

const (
	// maxTokenLen bounds decode work on attacker-controlled input. A claim
	// with a 254-byte email and a maxIssuerLen issuer encodes well below it.
	maxTokenLen = 4096

	maxIssuerLen = 256
)

// Codec signs claims into tokens and decodes tokens back into claims.
//
// Decode verifies signature, issuer and structure but not expiry; callers
// decide what an expired claim is good for. It returns ErrMalformedToken for
// any input it cannot accept and never panics.
type Codec interface {
	Issue(c Claim) (string, error)
	Decode(token string) (Claim, error)
	Format() Format
}

// NewCodec builds the Codec selected by cfg.Format.
func NewCodec(cfg Config) (Codec, error) {
	if len(cfg.Issuer) > maxIssuerLen {
		return nil, fmt.Errorf("%w: issuer longer than %d bytes", ErrConfig, maxIssuerLen)
	}
	switch cfg.Format {
	case FormatPaseto, "":
		return NewPasetoV4PublicCodec(cfg)
	case FormatJWT:
		return NewJWTCodec(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown token format %q", ErrConfig, cfg.Format)
	}
}

// decodeGuard rejects inputs no codec should spend time on and converts
// panics from third-party parsers into ErrMalformedToken.
func decodeGuard(token string, decode func(string) (Claim, error)) (c Claim, err error) {
	if token == "" || len(token) > maxTokenLen {
		return Claim{}, ErrMalformedToken
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = Claim{}, ErrMalformedToken
		}
	}()
	return decode(token)
}
