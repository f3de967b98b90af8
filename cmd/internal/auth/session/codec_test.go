package session

import (
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/golang-jwt/jwt/v5"
)

func testCodecs(t *testing.T) map[Format]Codec {
	t.Helper()

	pcfg := DefaultConfig()
	pcfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	pc, err := NewCodec(pcfg)
	if err != nil {
		t.Fatalf("paseto codec: %v", err)
	}

	jcfg := DefaultConfig()
	jcfg.Format = FormatJWT
	jcfg.JWTSecret = []byte(strings.Repeat("k", 32))
	jc, err := NewCodec(jcfg)
	if err != nil {
		t.Fatalf("jwt codec: %v", err)
	}

	return map[Format]Codec{FormatPaseto: pc, FormatJWT: jc}
}

func TestCodec_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	for format, codec := range testCodecs(t) {
		t.Run(string(format), func(t *testing.T) {
			if codec.Format() != format {
				t.Fatalf("Format() = %q", codec.Format())
			}

			cl, err := NewClaim("01HXUSER", "jake@jake.jake", now, time.Hour)
			if err != nil {
				t.Fatalf("NewClaim: %v", err)
			}

			tok, err := codec.Issue(cl)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			got, err := codec.Decode(tok)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Subject != cl.Subject || got.Email != cl.Email || got.ID != cl.ID {
				t.Fatalf("claim mismatch: got %+v want %+v", got, cl)
			}
			if !got.ExpiresAt.Equal(cl.ExpiresAt) || !got.IssuedAt.Equal(cl.IssuedAt) {
				t.Fatalf("time mismatch: got iat=%v exp=%v want iat=%v exp=%v",
					got.IssuedAt, got.ExpiresAt, cl.IssuedAt, cl.ExpiresAt)
			}
			if got.Issuer != "conduit" {
				t.Fatalf("issuer = %q", got.Issuer)
			}
		})
	}
}

func TestCodec_DistinctTokensSameInstant(t *testing.T) {
	now := time.Now()

	for format, codec := range testCodecs(t) {
		t.Run(string(format), func(t *testing.T) {
			a, _ := NewClaim("u1", "a@example.com", now, time.Hour)
			b, _ := NewClaim("u1", "a@example.com", now, time.Hour)

			ta, err := codec.Issue(a)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			tb, err := codec.Issue(b)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if ta == tb {
				t.Fatalf("expected distinct tokens for separate issuances")
			}
		})
	}
}

func TestCodec_DecodeIgnoresExpiry(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)

	for format, codec := range testCodecs(t) {
		t.Run(string(format), func(t *testing.T) {
			cl, _ := NewClaim("u-expired", "x@example.com", past, time.Hour)
			tok, err := codec.Issue(cl)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			got, err := codec.Decode(tok)
			if err != nil {
				t.Fatalf("Decode of expired token should succeed, got %v", err)
			}
			if got.Subject != "u-expired" || !got.Expired(time.Now()) {
				t.Fatalf("unexpected claim: %+v", got)
			}
		})
	}
}

func TestCodec_DecodeIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"garbage",
		"v4.public.",
		"v4.public.!!!!",
		"v4.local.AAAA",
		"a.b.c",
		"eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.",
		strings.Repeat("A", maxTokenLen+1),
		"\x00\xff\xfe",
	}

	for format, codec := range testCodecs(t) {
		t.Run(string(format), func(t *testing.T) {
			for _, in := range inputs {
				if _, err := codec.Decode(in); err != ErrMalformedToken {
					t.Fatalf("Decode(%q) err = %v, want ErrMalformedToken", in, err)
				}
			}
		})
	}
}

func TestCodec_RejectsForeignKeys(t *testing.T) {
	now := time.Now()
	a := testCodecs(t)
	b := testCodecs(t)

	for format := range a {
		t.Run(string(format), func(t *testing.T) {
			cl, _ := NewClaim("u1", "a@example.com", now, time.Hour)
			tok, err := a[format].Issue(cl)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if _, err := b[format].Decode(tok); err != ErrMalformedToken {
				t.Fatalf("expected signature failure, got %v", err)
			}
		})
	}

	cl, _ := NewClaim("u1", "a@example.com", now, time.Hour)
	ptok, _ := a[FormatPaseto].Issue(cl)
	if _, err := a[FormatJWT].Decode(ptok); err != ErrMalformedToken {
		t.Fatalf("jwt codec accepted a paseto token: %v", err)
	}
}

func TestCodec_RejectsWrongIssuer(t *testing.T) {
	key := paseto.NewV4AsymmetricSecretKey().ExportHex()

	issuing := DefaultConfig()
	issuing.Issuer = "someone-else"
	issuing.PasetoV4SecretKeyHex = key
	other, err := NewPasetoV4PublicCodec(issuing)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	verifying := DefaultConfig()
	verifying.PasetoV4SecretKeyHex = key
	ours, err := NewPasetoV4PublicCodec(verifying)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	cl, _ := NewClaim("u1", "a@example.com", time.Now(), time.Hour)
	tok, _ := other.Issue(cl)
	if _, err := ours.Decode(tok); err != ErrMalformedToken {
		t.Fatalf("expected issuer mismatch to fail, got %v", err)
	}
}

func TestJWTCodec_AcceptsLegacyNumericSubject(t *testing.T) {
	secret := []byte(strings.Repeat("k", 32))
	cfg := DefaultConfig()
	cfg.Format = FormatJWT
	cfg.JWTSecret = secret
	codec, err := NewJWTCodec(cfg)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "jake@jake.jake",
		"sub":   42,
		"exp":   exp.Unix(),
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := codec.Decode(legacy)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Subject != "42" || got.Email != "jake@jake.jake" || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claim: %+v", got)
	}

	// Missing exp is structurally invalid.
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString(secret)
	if _, err := codec.Decode(noExp); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken for missing exp, got %v", err)
	}

	// HS512 is not accepted even with the right secret.
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "42", "exp": exp.Unix()}).SignedString(secret)
	if _, err := codec.Decode(hs512); err != ErrMalformedToken {
		t.Fatalf("expected ErrMalformedToken for HS512, got %v", err)
	}
}

func TestNewCodec_Config(t *testing.T) {
	if _, err := NewCodec(Config{Format: FormatPaseto, PasetoV4SecretKeyHex: "zz"}); err == nil {
		t.Fatalf("expected error for bad paseto key")
	}
	if _, err := NewCodec(Config{Format: FormatJWT, JWTSecret: []byte("short")}); err == nil {
		t.Fatalf("expected error for short jwt secret")
	}
	if _, err := NewCodec(Config{Format: "saml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNewClaim(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 999_999_999, time.UTC)

	cl, err := NewClaim("u1", "e@example.com", now, 90*time.Second)
	if err != nil {
		t.Fatalf("NewClaim: %v", err)
	}
	if !cl.IssuedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("iat not truncated: %v", cl.IssuedAt)
	}
	if cl.ExpiresAt.Sub(cl.IssuedAt) != 90*time.Second {
		t.Fatalf("ttl mismatch: %v", cl.ExpiresAt.Sub(cl.IssuedAt))
	}
	if len(cl.ID) != 26 {
		t.Fatalf("expected ULID jti, got %q", cl.ID)
	}

	if _, err := NewClaim("", "e@example.com", now, time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := NewClaim("u1", "e@example.com", now, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestCodec_LargestClaimFitsTokenLimit(t *testing.T) {
	issuer := strings.Repeat("i", maxIssuerLen)
	email := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 189-4) + ".com"
	if len(email) != 254 {
		t.Fatalf("fixture email is %d bytes", len(email))
	}

	pcfg := DefaultConfig()
	pcfg.Issuer = issuer
	pcfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	jcfg := DefaultConfig()
	jcfg.Issuer = issuer
	jcfg.Format = FormatJWT
	jcfg.JWTSecret = []byte(strings.Repeat("k", 64))

	for _, cfg := range []Config{pcfg, jcfg} {
		codec, err := NewCodec(cfg)
		if err != nil {
			t.Fatalf("%s codec: %v", cfg.Format, err)
		}
		cl, err := NewClaim("01HXZZZZZZZZZZZZZZZZZZZZZZ", email, time.Now(), 365*24*time.Hour)
		if err != nil {
			t.Fatalf("NewClaim: %v", err)
		}
		tok, err := codec.Issue(cl)
		if err != nil {
			t.Fatalf("%s Issue: %v", cfg.Format, err)
		}
		if len(tok) > maxTokenLen/2 {
			t.Fatalf("%s token is %d bytes, limit %d", cfg.Format, len(tok), maxTokenLen)
		}
		got, err := codec.Decode(tok)
		if err != nil || got.Email != email {
			t.Fatalf("%s decode: %v (%q)", cfg.Format, err, got.Email)
		}
	}
}

func TestNewCodec_RejectsOversizedIssuer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Issuer = strings.Repeat("i", maxIssuerLen+1)
	cfg.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()
	if _, err := NewCodec(cfg); err == nil {
		t.Fatalf("expected error for oversized issuer")
	}
}
