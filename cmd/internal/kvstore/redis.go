package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Client = (*RedisClient)(nil)

// RedisClient is a lazily (re)connecting Redis handle shared by all requests.
type RedisClient struct {
	opts      *redis.Options
	opTimeout time.Duration
	log       *slog.Logger
	metrics   *Metrics

	// mu serializes reconnects only; data operations read cur without locking.
	mu     sync.Mutex
	cur    atomic.Pointer[redis.Client]
	closed atomic.Bool
}

// Option configures a RedisClient or MemoryClient.
type Option func(*options)

type options struct {
	log     *slog.Logger
	metrics *Metrics
}

// WithLogger sets the logger used for connection events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics attaches operation counters.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NewRedisClient validates cfg and returns an unconnected client.
// Call Connect (or any operation) to establish the connection.
func NewRedisClient(cfg Config, opts ...Option) (*RedisClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: redis url or addr is required", ErrConfig)
	}

	var ro *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		ro = parsed
	} else {
		ro = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if cfg.DialTimeout > 0 {
		ro.DialTimeout = cfg.DialTimeout
	}
	if cfg.OpTimeout > 0 {
		ro.ReadTimeout = cfg.OpTimeout
		ro.WriteTimeout = cfg.OpTimeout
	}
	// Retries are owned by this package: one reconnect, one retry.
	ro.MaxRetries = -1

	o := buildOptions(opts)
	return &RedisClient{
		opts:      ro,
		opTimeout: cfg.OpTimeout,
		log:       o.log,
		metrics:   o.metrics,
	}, nil
}

// Connect establishes the initial connection.
func (c *RedisClient) Connect(ctx context.Context) error {
	return c.EnsureConnected(ctx)
}

// EnsureConnected pings the current connection and reconnects once if it is down.
func (c *RedisClient) EnsureConnected(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	cl := c.cur.Load()
	if cl != nil {
		if err := c.ping(ctx, cl); err == nil {
			return nil
		}
	}
	_, err := c.reconnect(ctx, cl)
	return err
}

func (c *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := c.do(ctx, "get", func(ctx context.Context, cl *redis.Client) error {
		v, err := cl.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			val, found = "", false
			return nil
		}
		if err != nil {
			return err
		}
		val, found = v, true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return val, found, nil
}

func (c *RedisClient) SetWithExpiry(ctx context.Context, key, value string, ttlSeconds int64) (bool, error) {
	if ttlSeconds <= 0 {
		c.metrics.op(BackendRedis, "set", "skipped")
		return false, nil
	}
	ttl := time.Duration(ttlSeconds) * time.Second

	err := c.do(ctx, "set", func(ctx context.Context, cl *redis.Client) error {
		return cl.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete", func(ctx context.Context, cl *redis.Client) error {
		return cl.Del(ctx, key).Err()
	})
}

// Close releases the connection. Subsequent operations return ErrClosed.
func (c *RedisClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cl := c.cur.Swap(nil); cl != nil {
		return cl.Close()
	}
	return nil
}

// do runs fn on the current connection. On a transport failure it reconnects
// once and retries once; a second failure is reported as ErrUnavailable.
func (c *RedisClient) do(ctx context.Context, op string, fn func(context.Context, *redis.Client) error) error {
	if c.closed.Load() {
		return ErrClosed
	}

	cl := c.cur.Load()
	if cl == nil {
		var err error
		if cl, err = c.reconnect(ctx, nil); err != nil {
			c.metrics.op(BackendRedis, op, "unavailable")
			return err
		}
	}

	err := c.run(ctx, cl, fn)
	if err == nil {
		c.metrics.op(BackendRedis, op, "ok")
		return nil
	}
	if isServerError(err) {
		c.metrics.op(BackendRedis, op, "error")
		return fmt.Errorf("kvstore: %s: %w", op, err)
	}

	c.log.Warn("kvstore.op.fail", "op", op, "err", err)

	if ctx.Err() != nil {
		c.metrics.op(BackendRedis, op, "unavailable")
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}

	// A slow reply on a live connection is retried in place; replacing the
	// shared client would abort every other in-flight request on it.
	if !errors.Is(err, context.DeadlineExceeded) || c.ping(ctx, cl) != nil {
		var rerr error
		if cl, rerr = c.reconnect(ctx, cl); rerr != nil {
			c.metrics.op(BackendRedis, op, "unavailable")
			return rerr
		}
	}

	if err := c.run(ctx, cl, fn); err != nil {
		c.metrics.op(BackendRedis, op, "unavailable")
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	c.metrics.op(BackendRedis, op, "ok")
	return nil
}

func (c *RedisClient) run(ctx context.Context, cl *redis.Client, fn func(context.Context, *redis.Client) error) error {
	if c.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
	}
	return fn(ctx, cl)
}

// reconnect replaces stale with a fresh, pinged client. If another goroutine
// already replaced stale, that client is reused instead of dialing again.
func (c *RedisClient) reconnect(ctx context.Context, stale *redis.Client) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, ErrClosed
	}

	if cur := c.cur.Load(); cur != nil && cur != stale {
		return cur, nil
	}

	fresh := redis.NewClient(c.opts)
	if err := c.ping(ctx, fresh); err != nil {
		_ = fresh.Close()
		c.metrics.reconnect("fail")
		c.log.Warn("kvstore.reconnect.fail", "addr", c.opts.Addr, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.cur.Store(fresh)
	if stale != nil {
		_ = stale.Close()
	}

	c.metrics.reconnect("ok")
	c.log.Info("kvstore.connected", "addr", c.opts.Addr, "db", c.opts.DB)
	return fresh, nil
}

func (c *RedisClient) ping(ctx context.Context, cl *redis.Client) error {
	timeout := c.opts.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return cl.Ping(pctx).Err()
}

// isServerError reports an error reply from Redis itself (WRONGTYPE, NOAUTH, ...)
// as opposed to a transport failure.
func isServerError(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr)
}
