package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

var _ Client = (*MemoryClient)(nil)

// MemoryClient is an in-process TTL store. Entries are lost on restart,
// which only logs everyone out.
type MemoryClient struct {
	cache   *ristretto.Cache[string, string]
	log     *slog.Logger
	metrics *Metrics
	closed  atomic.Bool
}

// NewMemoryClient builds a ristretto-backed store holding up to cfg.MemoryMaxEntries keys.
func NewMemoryClient(cfg Config, opts ...Option) (*MemoryClient, error) {
	maxEntries := cfg.MemoryMaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultConfig().MemoryMaxEntries
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: memory cache: %w", err)
	}

	o := buildOptions(opts)
	return &MemoryClient{cache: cache, log: o.log, metrics: o.metrics}, nil
}

func (m *MemoryClient) EnsureConnected(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (m *MemoryClient) Get(ctx context.Context, key string) (string, bool, error) {
	if err := m.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := m.cache.Get(key)
	m.metrics.op(BackendMemory, "get", "ok")
	return v, ok, nil
}

func (m *MemoryClient) SetWithExpiry(ctx context.Context, key, value string, ttlSeconds int64) (bool, error) {
	if err := m.check(ctx); err != nil {
		return false, err
	}
	if ttlSeconds <= 0 {
		m.metrics.op(BackendMemory, "set", "skipped")
		return false, nil
	}

	if !m.cache.SetWithTTL(key, value, 1, time.Duration(ttlSeconds)*time.Second) {
		m.metrics.op(BackendMemory, "set", "dropped")
		m.log.Warn("kvstore.memory.set_dropped", "key", key)
		return false, fmt.Errorf("%w: set dropped", ErrUnavailable)
	}
	m.cache.Wait()

	m.metrics.op(BackendMemory, "set", "ok")
	return true, nil
}

func (m *MemoryClient) Delete(ctx context.Context, key string) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.cache.Del(key)
	m.cache.Wait()
	m.metrics.op(BackendMemory, "delete", "ok")
	return nil
}

func (m *MemoryClient) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.cache.Close()
	return nil
}

func (m *MemoryClient) check(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}
