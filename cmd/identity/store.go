package identity

import (
	"context"
	"time"
)

// User is a directory entry without its secret material.
type User struct {
	ID           string
	Email        string
	EmailNorm    string
	Username     string
	UsernameNorm string
	Bio          string
	Image        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential is a user together with its stored password hash.
// The hash is Argon2id for accounts created here, or bcrypt for imported ones.
type Credential struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration request.
type CreateUserInput struct {
	Email    string
	Username string
	Password string
	Now      time.Time
}

// Store is the persistence boundary under Directory.
//
// Implementations:
// - return ConflictError{Field: "email"|"username"} on a normalized-uniqueness clash;
// - return NotFoundError when a lookup misses.
type Store interface {
	InsertUser(ctx context.Context, c Credential) error
	CredentialByEmailNorm(ctx context.Context, emailNorm string) (Credential, error)
	UserByID(ctx context.Context, id string) (User, error)
}
