package kvstore

import "context"

// Client is the store surface the session registry is built on.
type Client interface {
	// EnsureConnected checks liveness and attempts a single reconnect if down.
	EnsureConnected(ctx context.Context) error

	// Get returns (value, true, nil) on hit and ("", false, nil) when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithExpiry writes key with a TTL in whole seconds and reports whether it wrote.
	// ttlSeconds <= 0 is not persisted and returns (false, nil).
	SetWithExpiry(ctx context.Context, key, value string, ttlSeconds int64) (bool, error)

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Backend names the implementation behind a Client, for logs and metrics.
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)
