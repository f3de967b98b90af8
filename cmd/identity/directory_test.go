package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"conduit/cmd/security/password"
)

func testPasswordConfig() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func newTestDirectory(t *testing.T) (*Directory, *MemoryStore) {
	t.Helper()
	st := NewMemoryStore()
	d, err := NewDirectory(st, testPasswordConfig())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	return d, st
}

func TestDirectory_CreateAndFind(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	u, err := d.CreateUser(ctx, CreateUserInput{
		Email:    "  Jake@Jake.Jake ",
		Username: "Jake",
		Password: "jakejake",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if len(u.ID) != 26 {
		t.Fatalf("expected ULID id, got %q", u.ID)
	}
	if u.Email != "Jake@Jake.Jake" || u.EmailNorm != "jake@jake.jake" || u.UsernameNorm != "jake" {
		t.Fatalf("unexpected normalization: %+v", u)
	}

	c, err := d.FindByEmail(ctx, "JAKE@jake.jake")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if c.User.ID != u.ID || c.PasswordHash == "" || c.PasswordHash == "jakejake" {
		t.Fatalf("unexpected credential: %+v", c)
	}

	ok, err := d.VerifyPassword(c.PasswordHash, "jakejake")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword = %v, %v", ok, err)
	}
	ok, err = d.VerifyPassword(c.PasswordHash, "jakejak")
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}

	got, err := d.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Username != "Jake" {
		t.Fatalf("FindByID username = %q", got.Username)
	}
}

func TestDirectory_CreateUser_Conflicts(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	if _, err := d.CreateUser(ctx, CreateUserInput{Email: "a@example.com", Username: "alice", Password: "password-1"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := d.CreateUser(ctx, CreateUserInput{Email: "A@EXAMPLE.com", Username: "other", Password: "password-2"})
	if field, ok := ConflictField(err); !ok || field != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected errors.Is ErrConflict")
	}

	_, err = d.CreateUser(ctx, CreateUserInput{Email: "b@example.com", Username: "ALICE", Password: "password-3"})
	if field, ok := ConflictField(err); !ok || field != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestDirectory_CreateUser_InvalidInput(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	cases := []CreateUserInput{
		{Email: "", Username: "u", Password: "password-1"},
		{Email: "e@example.com", Username: "  ", Password: "password-1"},
		{Email: "e@example.com", Username: "u", Password: "short"},
	}
	for _, in := range cases {
		if _, err := d.CreateUser(ctx, in); !IsInvalidInput(err) {
			t.Fatalf("CreateUser(%+v) = %v, want invalid input", in, err)
		}
	}
}

func TestDirectory_NotFound(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	if _, err := d.FindByEmail(ctx, "nobody@example.com"); !IsNotFound(err) {
		t.Fatalf("FindByEmail: expected not found, got %v", err)
	}
	if _, err := d.FindByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ"); !IsNotFound(err) {
		t.Fatalf("FindByID: expected not found, got %v", err)
	}
	if _, err := d.FindByEmail(ctx, "   "); !IsInvalidInput(err) {
		t.Fatalf("FindByEmail(blank): expected invalid input, got %v", err)
	}
}

func TestDirectory_LegacyBcryptCredential(t *testing.T) {
	d, st := newTestDirectory(t)
	ctx := context.Background()

	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now().UTC()
	err = st.InsertUser(ctx, Credential{
		User: User{
			ID: "42", Email: "old@example.com", EmailNorm: "old@example.com",
			Username: "old", UsernameNorm: "old", CreatedAt: now, UpdatedAt: now,
		},
		PasswordHash: string(raw),
	})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	c, err := d.FindByEmail(ctx, "old@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	ok, err := d.VerifyPassword(c.PasswordHash, "legacy-pass")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(bcrypt) = %v, %v", ok, err)
	}
}
