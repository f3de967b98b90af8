// Package kvstore is the session store client: a handle to an external
// key-value store with per-key expiry.
//
// RedisClient owns one logical Redis connection. It reconnects lazily, at most
// once per failing operation, and serializes reconnect attempts; data
// operations run concurrently. Failures surface as ErrUnavailable and are
// distinct from a missing key.
//
// MemoryClient is an in-process alternative backed by ristretto, used when no
// Redis is configured.
package kvstore
