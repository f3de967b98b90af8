package authapi

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/time/rate"
)

// loginThrottle limits failed logins per client IP with a token bucket:
// max failures burst, refilled at max per window. Buckets idle for a full
// window are evicted.
type loginThrottle struct {
	max    int
	window time.Duration
	every  rate.Limit

	mu    sync.Mutex
	cache *ristretto.Cache[string, *rate.Limiter]
}

func newLoginThrottle(max int, window time.Duration) (*loginThrottle, error) {
	if max <= 0 || window <= 0 {
		return nil, fmt.Errorf("authapi: invalid login throttle %d/%s", max, window)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *rate.Limiter]{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("authapi: throttle cache: %w", err)
	}
	return &loginThrottle{
		max:    max,
		window: window,
		every:  rate.Every(window / time.Duration(max)),
		cache:  cache,
	}, nil
}

func (t *loginThrottle) close() {
	if t != nil && t.cache != nil {
		t.cache.Close()
	}
}

// blocked reports whether ip has exhausted its failure budget and how long until one more attempt is allowed.
func (t *loginThrottle) blocked(ip net.IP, now time.Time) (bool, time.Duration) {
	if t == nil || ip == nil {
		return false, 0
	}
	lim, ok := t.cache.Get(ip.String())
	if !ok {
		return false, 0
	}
	tokens := lim.TokensAt(now)
	if tokens >= 1 {
		return false, 0
	}
	per := t.window / time.Duration(t.max)
	wait := time.Duration(math.Ceil((1 - tokens) * float64(per)))
	if wait < time.Second {
		wait = time.Second
	}
	return true, wait
}

// fail charges one failed attempt to ip and restarts the bucket's idle window.
func (t *loginThrottle) fail(ip net.IP, now time.Time) {
	if t == nil || ip == nil {
		return
	}
	key := ip.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.cache.Get(key)
	if !ok {
		lim = rate.NewLimiter(t.every, t.max)
	}
	lim.AllowN(now, 1)
	if t.cache.SetWithTTL(key, lim, 1, t.window) {
		t.cache.Wait()
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(math.Ceil(retryAfter.Seconds())), 10))
	}
	writeError(w, http.StatusTooManyRequests, "login", "too many attempts")
}
