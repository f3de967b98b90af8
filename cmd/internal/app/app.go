// Package app wires the Conduit server runtime: config, logging, stores, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"conduit/cmd/identity"
	"conduit/cmd/internal/auth"
	authapi "conduit/cmd/internal/auth/api"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/kvstore"
	"conduit/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Deps carries the per-package configuration the runtime is assembled from.
type Deps struct {
	Session   session.Config
	Store     kvstore.Config
	Passwords password.Config
	AuthAPI   authapi.Config
}

// LoadDeps loads every package configuration from the environment.
func LoadDeps() (Deps, error) {
	sess, err := session.LoadConfigFromEnv()
	if err != nil {
		return Deps{}, fmt.Errorf("session config: %w", err)
	}
	store, err := kvstore.LoadConfigFromEnv()
	if err != nil {
		return Deps{}, fmt.Errorf("store config: %w", err)
	}
	pw, err := password.FromEnv()
	if err != nil {
		return Deps{}, fmt.Errorf("password config: %w", err)
	}
	return Deps{
		Session:   sess,
		Store:     store,
		Passwords: pw,
		AuthAPI:   authapi.LoadConfigFromEnv(),
	}, nil
}

// App is the Conduit server runtime. It owns the DB pool and the session store connection.
type App struct {
	cfg Config
	log Logger

	pool *pgxpool.Pool
	kv   kvstore.Client

	svc  *auth.Service
	auth *authapi.Handler

	metrics *prometheus.Registry
}

// New constructs a fully wired App. Without a database URL the credential
// directory is held in memory.
func New(ctx context.Context, cfg Config, deps Deps, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := ValidateRuntimePolicy(cfg, deps.Store, deps.Session); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{cfg: cfg, log: log, metrics: reg}

	dir, err := a.openDirectory(ctx, deps.Passwords)
	if err != nil {
		a.Close()
		return nil, err
	}

	kv, err := OpenSessionStore(ctx, deps.Store, log, kvstore.NewMetrics(reg))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kv = kv

	codec, err := session.NewCodec(deps.Session)
	if err != nil {
		a.Close()
		return nil, err
	}
	registry, err := session.NewRegistry(kv, deps.Session.KeyPrefix)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.svc, err = auth.NewService(deps.Session, dir, codec, registry,
		auth.WithLogger(log),
		auth.WithMetrics(auth.NewMetrics(reg)),
		auth.WithPasswordPolicy(deps.Passwords.Policy.MinLength, deps.Passwords.Policy.MaxLength),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.auth, err = authapi.NewHandler(log, deps.AuthAPI, a.svc)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Info("app.ready",
		"token_format", string(codec.Format()),
		"db_enabled", a.pool != nil,
		"redis_enabled", deps.Store.Enabled(),
	)
	return a, nil
}

func (a *App) openDirectory(ctx context.Context, pw password.Config) (*identity.Directory, error) {
	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.inmemory_directory")
		return identity.NewDirectory(identity.NewMemoryStore(), pw)
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	st, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	a.log.Info("db.enabled.postgres_directory")
	return identity.NewDirectory(st, pw)
}

// Service returns the authentication service.
func (a *App) Service() *auth.Service { return a.svc }

// Handler returns the root HTTP handler with middleware applied.
func (a *App) Handler() http.Handler { return a.routes() }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
// Resources are released before it returns.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.pool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// Close releases the session store, the login throttle, and the DB pool. It is idempotent.
func (a *App) Close() {
	if a.auth != nil {
		a.auth.Close()
		a.auth = nil
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil && !errors.Is(err, kvstore.ErrClosed) {
			a.log.Error("kvstore.close.fail", "err", err)
		}
		a.kv = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
