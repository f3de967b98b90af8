package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"conduit/cmd/internal/kvstore"
)

// Registry maps a user id to the single token currently considered live.
type Registry struct {
	kv     kvstore.Client
	prefix string
	now    func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source used for TTL computation.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry builds a Registry on kv. Keys are prefix + userID.
func NewRegistry(kv kvstore.Client, prefix string, opts ...RegistryOption) (*Registry, error) {
	if kv == nil {
		return nil, errors.New("session: nil kv client")
	}
	r := &Registry{
		kv:     kv,
		prefix: prefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Key returns the store key for userID.
func (r *Registry) Key(userID string) string {
	return r.prefix + userID
}

// TTLSeconds returns max(0, floor((exp-now)/1s)).
func TTLSeconds(exp, now time.Time) int64 {
	d := exp.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Record makes token the live session for userID, replacing any prior one.
// It reports false without writing when the token has less than a second left.
func (r *Registry) Record(ctx context.Context, userID, token string, exp time.Time) (bool, error) {
	ttl := TTLSeconds(exp, r.now())
	if ttl == 0 {
		return false, nil
	}
	return r.kv.SetWithExpiry(ctx, r.Key(userID), token, ttl)
}

// Revoke deletes the session record for userID. A missing record is not an error.
func (r *Registry) Revoke(ctx context.Context, userID string) error {
	return r.kv.Delete(ctx, r.Key(userID))
}

// IsLive reports whether token is exactly the recorded session for userID.
// Store failures are returned as errors; callers decide how to degrade.
func (r *Registry) IsLive(ctx context.Context, userID, token string) (bool, error) {
	stored, found, err := r.kv.Get(ctx, r.Key(userID))
	if err != nil {
		return false, err
	}
	if !found || token == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

// Lookup returns the recorded token for userID, if any.
func (r *Registry) Lookup(ctx context.Context, userID string) (string, bool, error) {
	return r.kv.Get(ctx, r.Key(userID))
}

// Ping checks that the underlying store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.kv.EnsureConnected(ctx)
}
