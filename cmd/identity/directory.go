package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"conduit/cmd/security/password"
)

// Directory is the credential directory consumed by the auth service.
// It hashes and verifies passwords; Store persists the result.
type Directory struct {
	store Store
	pw    password.Config
	now   func() time.Time
}

// NewDirectory wires a Store with a password configuration.
func NewDirectory(store Store, pw password.Config) (*Directory, error) {
	if store == nil {
		return nil, errors.New("identity: nil store")
	}
	return &Directory{
		store: store,
		pw:    pw,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateUser registers a new user. Email and username are unique case-insensitively.
func (d *Directory) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	if email == "" {
		return User{}, invalid(op, "email is required")
	}
	if username == "" {
		return User{}, invalid(op, "username is required")
	}

	hash, err := d.pw.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) ||
			errors.Is(err, password.ErrPasswordTooLong) ||
			errors.Is(err, password.ErrWeakPassword) {
			return User{}, invalid(op, err.Error())
		}
		return User{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = d.now()
	}
	now = now.UTC()

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           id,
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		Username:     username,
		UsernameNorm: NormalizeUsername(username),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := d.store.InsertUser(ctx, Credential{User: u, PasswordHash: hash}); err != nil {
		return User{}, err
	}
	return u, nil
}

// FindByEmail returns the credential for email, or a NotFoundError.
func (d *Directory) FindByEmail(ctx context.Context, email string) (Credential, error) {
	const op = "identity.FindByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return Credential{}, invalid(op, "email is required")
	}
	return d.store.CredentialByEmailNorm(ctx, norm)
}

// FindByID returns the user with id, or a NotFoundError.
func (d *Directory) FindByID(ctx context.Context, id string) (User, error) {
	const op = "identity.FindByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, invalid(op, "id is required")
	}
	return d.store.UserByID(ctx, id)
}

// VerifyPassword reports whether plain matches the stored hash.
// A malformed hash is reported as an error, never as a match.
func (d *Directory) VerifyPassword(hash, plain string) (bool, error) {
	return d.pw.Verify(hash, plain)
}

// HashPassword hashes plain under the directory's policy without storing it.
func (d *Directory) HashPassword(plain string) (string, error) {
	return d.pw.Hash(plain)
}
