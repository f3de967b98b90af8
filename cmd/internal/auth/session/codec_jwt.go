package session

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"conduit/cmd/security/token"
)

type jwtCodec struct {
	issuer string
	secret []byte
	parser *jwt.Parser
}

// NewJWTCodec builds an HS256 JWT Codec.
//
// Decoded tokens may omit "iss" (tokens minted by the previous RealWorld
// backend carry only sub and email) but a present issuer must match. A numeric
// "sub" is accepted and rendered in decimal.
func NewJWTCodec(cfg Config) (Codec, error) {
	if len(cfg.JWTSecret) < token.MinSecretBytes {
		return nil, ErrConfig
	}

	secret := make([]byte, len(cfg.JWTSecret))
	copy(secret, cfg.JWTSecret)

	return &jwtCodec{
		issuer: cfg.Issuer,
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (c *jwtCodec) Format() Format { return FormatJWT }

func (c *jwtCodec) Issue(cl Claim) (string, error) {
	if cl.Subject == "" || cl.ExpiresAt.IsZero() {
		return "", ErrConfig
	}

	claims := jwt.MapClaims{
		"jti":   cl.ID,
		"sub":   cl.Subject,
		"email": cl.Email,
		"iss":   c.issuer,
		"iat":   cl.IssuedAt.Unix(),
		"exp":   cl.ExpiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign jwt: %w", err)
	}
	return signed, nil
}

func (c *jwtCodec) Decode(tok string) (Claim, error) {
	return decodeGuard(tok, c.decode)
}

func (c *jwtCodec) decode(tok string) (Claim, error) {
	claims := jwt.MapClaims{}
	_, err := c.parser.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claim{}, ErrMalformedToken
	}

	if iss, ok := claims["iss"]; ok {
		if s, _ := iss.(string); s != c.issuer {
			return Claim{}, ErrMalformedToken
		}
	}

	sub, ok := jwtSubject(claims["sub"])
	if !ok {
		return Claim{}, ErrMalformedToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Claim{}, ErrMalformedToken
	}

	var iat time.Time
	if v, err := claims.GetIssuedAt(); err == nil && v != nil {
		iat = v.Time
	}
	jti, _ := claims["jti"].(string)
	email, _ := claims["email"].(string)

	return Claim{
		ID:        jti,
		Subject:   sub,
		Email:     email,
		Issuer:    c.issuer,
		IssuedAt:  iat.UTC(),
		ExpiresAt: exp.Time.UTC(),
	}, nil
}

func jwtSubject(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		if s < 0 || s != math.Trunc(s) || s > 1<<53 {
			return "", false
		}
		return strconv.FormatInt(int64(s), 10), true
	default:
		return "", false
	}
}
