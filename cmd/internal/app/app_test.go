package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	authapi "conduit/cmd/internal/auth/api"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/internal/kvstore"
	"conduit/cmd/security/password"
)

func testDeps(store kvstore.Config) Deps {
	sess := session.DefaultConfig()
	sess.PasetoV4SecretKeyHex = paseto.NewV4AsymmetricSecretKey().ExportHex()

	pw := password.DefaultConfig()
	pw.Params.MemoryKiB = 8 * 1024
	pw.Params.Iterations = 1
	pw.Params.Parallelism = 1

	return Deps{
		Session:   sess,
		Store:     store,
		Passwords: pw,
		AuthAPI:   authapi.Config{MaxBodyBytes: 1 << 20, LoginIPMax: 20, LoginIPWindow: time.Minute},
	}
}

func newTestApp(t *testing.T, cfg Config, store kvstore.Config) (*App, *httptest.Server) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), cfg, testDeps(store), log)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return a, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestApp_InMemoryHealthReadyMetrics(t *testing.T) {
	_, srv := newTestApp(t, Config{ReadinessRequireStore: true}, kvstore.DefaultConfig())

	code, body := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok\n", body)

	code, _ = get(t, srv.URL+"/readyz")
	require.Equal(t, http.StatusOK, code)

	resp, err := http.Post(srv.URL+"/api/users", "application/json",
		strings.NewReader(`{"user":{"username":"jake","email":"jake@jake.jake","password":"jakejake"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	code, body = get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "conduit_kvstore_operations_total")
	require.Contains(t, body, "conduit_auth_events_total")
}

func TestApp_ReadyzRequiresDBWhenConfigured(t *testing.T) {
	_, srv := newTestApp(t, Config{ReadinessRequireDB: true}, kvstore.DefaultConfig())

	code, _ := get(t, srv.URL+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestApp_ReadyzTracksRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := kvstore.DefaultConfig()
	store.Addr = mr.Addr()
	store.DialTimeout = 300 * time.Millisecond
	store.OpTimeout = 300 * time.Millisecond

	_, srv := newTestApp(t, Config{ReadinessRequireStore: true}, store)

	code, _ := get(t, srv.URL+"/readyz")
	require.Equal(t, http.StatusOK, code)

	mr.Close()
	code, _ = get(t, srv.URL+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)

	require.NoError(t, mr.Restart())
	code, _ = get(t, srv.URL+"/readyz")
	require.Equal(t, http.StatusOK, code)
}

func TestNew_RequireRedisPolicy(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := New(context.Background(), Config{RequireRedis: true}, testDeps(kvstore.DefaultConfig()), log)
	require.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONDUIT_HTTP_ADDR", "")
	t.Setenv("CONDUIT_DB_MAX_CONNS", "-3")
	t.Setenv("CONDUIT_READINESS_REQUIRE_STORE", "")

	cfg := LoadConfig()
	require.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	require.Equal(t, int32(10), cfg.DBMaxConns)
	require.True(t, cfg.ReadinessRequireStore)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
