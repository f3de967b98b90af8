package kvstore

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects and tunes the session store.
type Config struct {
	// URL is a redis:// or rediss:// URL. It takes precedence over Addr/Password/DB.
	URL string

	Addr     string
	Password string
	DB       int

	// DialTimeout bounds connection establishment and reconnect pings.
	DialTimeout time.Duration

	// OpTimeout bounds each read/write round trip.
	OpTimeout time.Duration

	// MemoryMaxEntries caps the in-process store when Redis is not configured.
	MemoryMaxEntries int64
}

// DefaultConfig returns development defaults (no Redis, in-process store).
func DefaultConfig() Config {
	return Config{
		DialTimeout:      2 * time.Second,
		OpTimeout:        1 * time.Second,
		MemoryMaxEntries: 1 << 20,
	}
}

// Enabled reports whether a Redis endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" || strings.TrimSpace(c.Addr) != ""
}

// LoadConfigFromEnv loads store configuration from environment variables.
//
// Optional:
//   - CONDUIT_REDIS_URL
//   - CONDUIT_REDIS_ADDR
//   - CONDUIT_REDIS_PASSWORD
//   - CONDUIT_REDIS_DB
//   - CONDUIT_REDIS_DIAL_TIMEOUT
//   - CONDUIT_REDIS_OP_TIMEOUT
//   - CONDUIT_MEMSTORE_MAX_ENTRIES
//
// Returns ErrConfig if a value is present but invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.URL = strings.TrimSpace(os.Getenv("CONDUIT_REDIS_URL"))
	cfg.Addr = strings.TrimSpace(os.Getenv("CONDUIT_REDIS_ADDR"))
	cfg.Password = os.Getenv("CONDUIT_REDIS_PASSWORD")

	if v := os.Getenv("CONDUIT_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 15 {
			return Config{}, ErrConfig
		}
		cfg.DB = n
	}

	if v := os.Getenv("CONDUIT_REDIS_DIAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.DialTimeout = d
	}

	if v := os.Getenv("CONDUIT_REDIS_OP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.OpTimeout = d
	}

	if v := os.Getenv("CONDUIT_MEMSTORE_MAX_ENTRIES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return Config{}, ErrConfig
		}
		cfg.MemoryMaxEntries = n
	}

	return cfg, nil
}
