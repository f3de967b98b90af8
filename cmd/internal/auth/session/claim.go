package session

import (
	"strings"
	"time"

	"conduit/cmd/identity"
)

// Claim is the signed identity payload. ExpiresAt is authoritative for token lifetime.
type Claim struct {
	// ID is a per-issuance ULID, so two tokens issued in the same second still differ.
	ID        string
	Subject   string
	Email     string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewClaim builds a claim valid for ttl from now. Times are truncated to whole
// seconds, which is the precision every supported wire format carries.
func NewClaim(subject, email string, now time.Time, ttl time.Duration) (Claim, error) {
	if strings.TrimSpace(subject) == "" || ttl <= 0 {
		return Claim{}, ErrConfig
	}

	now = now.UTC().Truncate(time.Second)
	jti, err := identity.NewULID(now)
	if err != nil {
		return Claim{}, err
	}

	return Claim{
		ID:        jti,
		Subject:   subject,
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired reports whether the claim's lifetime has ended at now.
func (c Claim) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
