package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conduit/cmd/identity"
	"conduit/cmd/internal/auth/session"
	"conduit/cmd/security/token"
)

// Directory is the credential directory the service consumes.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (identity.Credential, error)
	FindByID(ctx context.Context, id string) (identity.User, error)
	CreateUser(ctx context.Context, in identity.CreateUserInput) (identity.User, error)
	VerifyPassword(hash, plain string) (bool, error)
	HashPassword(plain string) (string, error)
}

// Identity is the public profile returned to callers. It never carries the hash.
type Identity struct {
	ID       string
	Email    string
	Username string
	Bio      string
	Image    string
}

// Authenticated is the result of a successful login or registration.
type Authenticated struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
	Session   SessionWrite
}

// Principal is what a token asserts about its bearer.
type Principal struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service implements login, registration, logout and liveness checks.
// It holds no per-session state; all of it lives in the session registry.
type Service struct {
	dir   Directory
	codec session.Codec
	reg   *session.Registry

	ttl          time.Duration
	storeTimeout time.Duration
	pwMin, pwMax int

	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches outcome counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used to build claims.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPasswordPolicy sets the registration password length bounds (in runes).
func WithPasswordPolicy(minLen, maxLen int) Option {
	return func(s *Service) {
		if minLen > 0 {
			s.pwMin = minLen
		}
		if maxLen >= 0 {
			s.pwMax = maxLen
		}
	}
}

// NewService wires the service. cfg supplies TokenTTL and StoreTimeout.
func NewService(cfg session.Config, dir Directory, codec session.Codec, reg *session.Registry, opts ...Option) (*Service, error) {
	if dir == nil || codec == nil || reg == nil {
		return nil, errors.New("auth: directory, codec and registry are required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", session.ErrConfig)
	}

	s := &Service{
		dir:          dir,
		codec:        codec,
		reg:          reg,
		ttl:          cfg.TokenTTL,
		storeTimeout: cfg.StoreTimeout,
		pwMin:        8,
		pwMax:        256,
		log:          slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Login verifies credentials, replaces any live session for the user and
// returns a fresh token. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (Authenticated, error) {
	email, err := validateLogin(email, password)
	if err != nil {
		s.metrics.observe("login", "invalid_input")
		return Authenticated{}, err
	}

	cred, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			s.burnVerify(password)
			s.metrics.observe("login", "invalid_credentials")
			return Authenticated{}, ErrInvalidCredentials
		}
		s.log.Error("auth.login.directory.fail", "err", err)
		s.metrics.observe("login", "unavailable")
		return Authenticated{}, ErrUnavailable
	}

	ok, err := s.dir.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		s.log.Warn("auth.login.verify.fail", "user_id", cred.User.ID, "err", err)
	}
	if err != nil || !ok {
		s.metrics.observe("login", "invalid_credentials")
		return Authenticated{}, ErrInvalidCredentials
	}

	// A stale token may still be live from an earlier login.
	if rv := s.revoke(ctx, cred.User.ID); rv == RevokeDegraded {
		s.log.Warn("auth.login.revoke.degraded", "user_id", cred.User.ID)
	}

	out, err := s.issue(ctx, "login", cred.User)
	if err != nil {
		s.log.Error("auth.login.issue.fail", "user_id", cred.User.ID, "err", err)
		s.metrics.observe("login", "unavailable")
		return Authenticated{}, ErrUnavailable
	}
	s.metrics.observe("login", "ok")
	return out, nil
}

// Register creates the user and returns a live session for it.
// Conflicts surface as ConflictError; any other directory failure as ErrRegistrationFailed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Authenticated, error) {
	in, err := s.validateRegister(in)
	if err != nil {
		s.metrics.observe("register", "invalid_input")
		return Authenticated{}, err
	}

	u, err := s.dir.CreateUser(ctx, identity.CreateUserInput{
		Email:    in.Email,
		Username: in.Username,
		Password: in.Password,
		Now:      s.now().UTC(),
	})
	if err != nil {
		if field, ok := identity.ConflictField(err); ok {
			s.metrics.observe("register", "conflict")
			return Authenticated{}, ConflictError{Field: field}
		}
		s.log.Error("auth.register.fail", "err", err)
		s.metrics.observe("register", "failed")
		return Authenticated{}, ErrRegistrationFailed
	}

	out, err := s.issue(ctx, "register", u)
	if err != nil {
		s.log.Error("auth.register.issue.fail", "user_id", u.ID, "err", err)
		return Authenticated{}, ErrRegistrationFailed
	}
	s.metrics.observe("register", "ok")
	return out, nil
}

// Logout kills whatever session is live for the token's subject, even if the
// token is expired or not the recorded one. It never fails.
func (s *Service) Logout(ctx context.Context, tok string) Revocation {
	cl, err := s.codec.Decode(tok)
	if err != nil {
		s.metrics.observe("logout", RevokeNoToken.String())
		return RevokeNoToken
	}

	rv := s.revoke(ctx, cl.Subject)
	s.metrics.observe("logout", rv.String())
	s.log.Info("auth.logout", "user_id", cl.Subject, "token_fp", token.Fingerprint(tok), "result", rv.String())
	return rv
}

// RevokeUser deletes the live session for userID.
func (s *Service) RevokeUser(ctx context.Context, userID string) Revocation {
	rv := s.revoke(ctx, userID)
	s.metrics.observe("revoke", rv.String())
	return rv
}

// CheckToken decodes tok and consults the session registry.
// The Principal is populated whenever the token decodes.
func (s *Service) CheckToken(ctx context.Context, tok string) (Liveness, Principal) {
	cl, err := s.codec.Decode(tok)
	if err != nil {
		s.metrics.observe("check", Malformed.String())
		return Malformed, Principal{}
	}
	p := principalOf(cl)

	if cl.Expired(s.now()) {
		s.metrics.observe("check", NotLive.String())
		return NotLive, p
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	live, err := s.reg.IsLive(sctx, cl.Subject, tok)
	switch {
	case err != nil:
		s.log.Warn("auth.check.store.unavailable", "user_id", cl.Subject, "err", err)
		s.metrics.observe("check", Unavailable.String())
		return Unavailable, p
	case !live:
		s.metrics.observe("check", NotLive.String())
		return NotLive, p
	default:
		s.metrics.observe("check", Live.String())
		return Live, p
	}
}

// IsTokenValid reports whether tok is the live session for its subject.
// Store failures count as not valid.
func (s *Service) IsTokenValid(ctx context.Context, tok string) bool {
	l, _ := s.CheckToken(ctx, tok)
	return l == Live
}

// CurrentIdentity decodes tok for an already-authenticated request.
// It rejects expired claims but does not consult the session registry.
func (s *Service) CurrentIdentity(tok string) (Principal, bool) {
	cl, err := s.codec.Decode(tok)
	if err != nil || cl.Expired(s.now()) {
		return Principal{}, false
	}
	return principalOf(cl), true
}

// Profile loads the public profile for userID.
func (s *Service) Profile(ctx context.Context, userID string) (Identity, error) {
	u, err := s.dir.FindByID(ctx, userID)
	if err != nil {
		if identity.IsNotFound(err) || identity.IsInvalidInput(err) {
			return Identity{}, ErrUnknownIdentity
		}
		s.log.Error("auth.profile.fail", "user_id", userID, "err", err)
		return Identity{}, ErrUnavailable
	}
	return identityOf(u), nil
}

// Ping reports whether the session store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.reg.Ping(sctx)
}

// ---- internals ----

func (s *Service) issue(ctx context.Context, op string, u identity.User) (Authenticated, error) {
	cl, err := session.NewClaim(u.ID, u.Email, s.now(), s.ttl)
	if err != nil {
		return Authenticated{}, fmt.Errorf("auth: claim: %w", err)
	}
	tok, err := s.codec.Issue(cl)
	if err != nil {
		return Authenticated{}, fmt.Errorf("auth: issue token: %w", err)
	}

	w := s.record(ctx, u.ID, tok, cl.ExpiresAt)
	s.metrics.observe(op+".session", w.String())
	s.log.Info("auth."+op+".ok",
		"user_id", u.ID,
		"token_fp", token.Fingerprint(tok),
		"session_write", w.String(),
	)

	return Authenticated{
		Identity:  identityOf(u),
		Token:     tok,
		ExpiresAt: cl.ExpiresAt,
		Session:   w,
	}, nil
}

func (s *Service) record(ctx context.Context, userID, tok string, exp time.Time) SessionWrite {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	wrote, err := s.reg.Record(sctx, userID, tok, exp)
	switch {
	case err != nil:
		s.log.Warn("auth.session_write.degraded", "user_id", userID, "err", err)
		return WriteDegraded
	case !wrote:
		return WriteSkipped
	default:
		return WriteRecorded
	}
}

func (s *Service) revoke(ctx context.Context, userID string) Revocation {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.reg.Revoke(sctx, userID); err != nil {
		s.log.Warn("auth.revoke.degraded", "user_id", userID, "err", err)
		return RevokeDegraded
	}
	return RevokeApplied
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// burnVerify spends roughly one password verification so that unknown emails
// take as long as wrong passwords.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		if h, err := s.dir.HashPassword("dummy-password-for-timing-only"); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.dir.VerifyPassword(s.dummyHash, password)
	}
}

func identityOf(u identity.User) Identity {
	return Identity{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}

func principalOf(cl session.Claim) Principal {
	return Principal{
		UserID:    cl.Subject,
		Email:     cl.Email,
		IssuedAt:  cl.IssuedAt,
		ExpiresAt: cl.ExpiresAt,
	}
}
