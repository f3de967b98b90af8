package app

import (
	"context"
	"log/slog"

	"conduit/cmd/internal/kvstore"
)

// OpenSessionStore returns the Redis-backed store when one is configured and
// the in-process store otherwise. A Redis endpoint that is down at startup is
// not fatal; the client reconnects on first use.
func OpenSessionStore(ctx context.Context, cfg kvstore.Config, log *slog.Logger, m *kvstore.Metrics) (kvstore.Client, error) {
	opts := []kvstore.Option{kvstore.WithLogger(log), kvstore.WithMetrics(m)}

	if !cfg.Enabled() {
		log.Info("kvstore.disabled.inmemory_store")
		return kvstore.NewMemoryClient(cfg, opts...)
	}

	c, err := kvstore.NewRedisClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		log.Warn("kvstore.connect.deferred", "err", err)
	}
	return c, nil
}
