package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"conduit/cmd/internal/auth"
)

// Handler wires the RealWorld user endpoints to the authentication service.
type Handler struct {
	log *slog.Logger
	cfg Config

	svc      *auth.Service
	throttle *loginThrottle
	now      func() time.Time
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithClock overrides the time source used by the login throttle.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, svc *auth.Service, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("authapi: nil auth service")
	}

	h := &Handler{
		log: log,
		cfg: cfg,
		svc: svc,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}

	th, err := newLoginThrottle(cfg.LoginIPMax, cfg.LoginIPWindow)
	if err != nil {
		return nil, err
	}
	h.throttle = th
	return h, nil
}

// Close releases the login throttle cache.
func (h *Handler) Close() {
	if h != nil {
		h.throttle.close()
	}
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/users", h.handleRegister)
	mux.HandleFunc("/api/users/login", h.handleLogin)
	mux.HandleFunc("/api/users/logout", h.handleLogout)
	mux.HandleFunc("/api/user", h.handleCurrentUser)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "body", "invalid json")
		return
	}

	ctx := r.Context()
	out, err := h.svc.Register(ctx, auth.RegisterInput{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		var conflict auth.ConflictError
		var invalid auth.ValidationError
		switch {
		case errors.As(err, &conflict):
			writeError(w, http.StatusConflict, conflictField(conflict.Field), "has already been taken")
		case errors.As(err, &invalid):
			writeError(w, http.StatusUnprocessableEntity, invalid.Field, invalid.Reason)
		default:
			writeError(w, http.StatusInternalServerError, "registration", "failed")
		}
		return
	}

	h.auditRegister(ctx, out.Identity.ID, clientIP(r, h.cfg.TrustProxy), strings.TrimSpace(r.UserAgent()), out.Session.String())
	writeJSON(w, http.StatusCreated, userEnvelope{User: toUserResponse(out.Identity, out.Token)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "body", "invalid json")
		return
	}

	ctx := r.Context()
	now := h.now()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())
	email := strings.TrimSpace(req.User.Email)

	if blocked, retry := h.throttle.blocked(ip, now); blocked {
		h.auditLoginRateLimited(ctx, ip, ua, email, retry)
		writeRateLimited(w, retry)
		return
	}

	out, err := h.svc.Login(ctx, req.User.Email, req.User.Password)
	if err != nil {
		var invalid auth.ValidationError
		switch {
		case errors.Is(err, auth.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "login", "temporarily unavailable")
		case errors.As(err, &invalid):
			writeError(w, http.StatusUnprocessableEntity, invalid.Field, invalid.Reason)
		default:
			h.throttle.fail(ip, now)
			h.auditLoginFailed(ctx, ip, ua, email, "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "email or password", "is invalid")
		}
		return
	}

	h.auditLoginSuccess(ctx, out.Identity.ID, ip, ua, out.Session.String())
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(out.Identity, out.Token)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rv := h.svc.Logout(r.Context(), authToken(r))
	h.auditLogout(r.Context(), clientIP(r, h.cfg.TrustProxy), strings.TrimSpace(r.UserAgent()), rv.String())
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tok := authToken(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "token", "is missing")
		return
	}

	ctx := r.Context()
	live, p := h.svc.CheckToken(ctx, tok)
	if live != auth.Live {
		writeError(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}

	id, err := h.svc.Profile(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "user", "temporarily unavailable")
			return
		}
		writeError(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}

	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(id, tok)})
}

// ---- helpers ----

// authToken accepts "Token <t>" (RealWorld) and "Bearer <t>".
func authToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Token") && !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func conflictField(f string) string {
	if f == "" {
		return "user"
	}
	return f
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
