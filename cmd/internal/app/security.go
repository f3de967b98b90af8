package app

import (
	"errors"

	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/kvstore"
)

// ValidateRuntimePolicy enforces deployment policy at startup.
func ValidateRuntimePolicy(cfg Config, store kvstore.Config, sess session.Config) error {
	if cfg.RequireRedis && !store.Enabled() {
		return errors.New("runtime policy: CONDUIT_REQUIRE_REDIS=true but neither CONDUIT_REDIS_URL nor CONDUIT_REDIS_ADDR is set")
	}
	if sess.TokenTTL <= 0 {
		return errors.New("runtime policy: token ttl must be positive")
	}
	return nil
}
