package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

type pasetoV4PublicCodec struct {
	issuer string
	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4PublicCodec builds a Codec based on PASETO v4.public (Ed25519).
func NewPasetoV4PublicCodec(cfg Config) (Codec, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicCodec{
		issuer: cfg.Issuer,
		secret: secret,
		public: secret.Public(),
	}, nil
}

func (c *pasetoV4PublicCodec) Format() Format { return FormatPaseto }

// PublicKeyHex exports the verification key, e.g. for other services.
func (c *pasetoV4PublicCodec) PublicKeyHex() string {
	return c.public.ExportHex()
}

func (c *pasetoV4PublicCodec) Issue(cl Claim) (string, error) {
	if cl.Subject == "" || cl.ExpiresAt.IsZero() {
		return "", ErrConfig
	}

	tok := paseto.NewToken()
	tok.SetJti(cl.ID)
	tok.SetSubject(cl.Subject)
	tok.SetIssuer(c.issuer)
	tok.SetIssuedAt(cl.IssuedAt)
	tok.SetExpiration(cl.ExpiresAt)
	if err := tok.Set("email", cl.Email); err != nil {
		return "", err
	}

	return tok.V4Sign(c.secret, nil), nil
}

func (c *pasetoV4PublicCodec) Decode(token string) (Claim, error) {
	return decodeGuard(token, c.decode)
}

func (c *pasetoV4PublicCodec) decode(token string) (Claim, error) {
	// Fresh parser per call; expiry is the caller's decision.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(c.issuer))

	parsed, err := p.ParseV4Public(c.public, token, nil)
	if err != nil {
		return Claim{}, ErrMalformedToken
	}

	sub, err := parsed.GetSubject()
	if err != nil || sub == "" {
		return Claim{}, ErrMalformedToken
	}
	exp, err := parsed.GetExpiration()
	if err != nil {
		return Claim{}, ErrMalformedToken
	}

	var iat time.Time
	if v, err := parsed.GetIssuedAt(); err == nil {
		iat = v
	}
	jti, _ := parsed.GetJti()
	email, _ := parsed.GetString("email")

	return Claim{
		ID:        jti,
		Subject:   sub,
		Email:     email,
		Issuer:    c.issuer,
		IssuedAt:  iat.UTC(),
		ExpiresAt: exp.UTC(),
	}, nil
}
