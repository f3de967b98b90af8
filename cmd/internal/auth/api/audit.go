package authapi

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Audit events are emitted as structured log records under the "audit" group.

func (h *Handler) auditLoginFailed(ctx context.Context, ip net.IP, ua, email, reason string) {
	h.audit(ctx, slog.LevelWarn, "auth.login.failed", ip, ua,
		slog.String("email", email),
		slog.String("reason", reason),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, userID string, ip net.IP, ua, session string) {
	h.audit(ctx, slog.LevelInfo, "auth.login.success", ip, ua,
		slog.String("user_id", userID),
		slog.String("session", session),
	)
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, ip net.IP, ua, email string, retryAfter time.Duration) {
	h.audit(ctx, slog.LevelWarn, "auth.login.rate_limited", ip, ua,
		slog.String("email", email),
		slog.Int64("retry_after_s", int64(retryAfter.Seconds())),
	)
}

func (h *Handler) auditRegister(ctx context.Context, userID string, ip net.IP, ua, session string) {
	h.audit(ctx, slog.LevelInfo, "auth.register", ip, ua,
		slog.String("user_id", userID),
		slog.String("session", session),
	)
}

func (h *Handler) auditLogout(ctx context.Context, ip net.IP, ua, result string) {
	h.audit(ctx, slog.LevelInfo, "auth.logout", ip, ua,
		slog.String("result", result),
	)
}

func (h *Handler) audit(ctx context.Context, level slog.Level, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}
	ipStr := ""
	if ip != nil {
		ipStr = ip.String()
	}
	if len(ua) > 256 {
		ua = ua[:256]
	}
	group := make([]any, 0, len(attrs)+2)
	group = append(group, slog.String("ip", ipStr), slog.String("ua", ua))
	for _, a := range attrs {
		group = append(group, a)
	}
	h.log.LogAttrs(ctx, level, action, slog.Group("audit", group...))
}
