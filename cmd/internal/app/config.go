package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // "json" (default) or "pretty"

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	// DatabaseURL empty means the credential directory is kept in memory.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// If true, /readyz returns 503 while the session store is unreachable.
	ReadinessRequireStore bool

	// If true, startup fails unless Redis is configured.
	RequireRedis bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("CONDUIT_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("CONDUIT_LOG_LEVEL", "info"),
		LogFormat: EnvString("CONDUIT_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("CONDUIT_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("CONDUIT_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("CONDUIT_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("CONDUIT_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("CONDUIT_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxHeaderBytes: EnvInt("CONDUIT_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("CONDUIT_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("CONDUIT_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("CONDUIT_DB_MIN_CONNS", 0),

		ReadinessRequireDB:    EnvBool("CONDUIT_READINESS_REQUIRE_DB", false),
		ReadinessRequireStore: EnvBool("CONDUIT_READINESS_REQUIRE_STORE", true),

		RequireRedis: EnvBool("CONDUIT_REQUIRE_REDIS", false),
	}
}
