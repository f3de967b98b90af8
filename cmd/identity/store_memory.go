package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It enforces the same normalized
// uniqueness rules as the Postgres schema.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Credential
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]Credential),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (m *MemoryStore) InsertUser(ctx context.Context, c Credential) error {
	const op = "identity.InsertUser"

	if err := ctx.Err(); err != nil {
		return err
	}
	if c.User.ID == "" || c.User.EmailNorm == "" || c.User.UsernameNorm == "" {
		return invalid(op, "id, email_norm and username_norm are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[c.User.EmailNorm]; ok {
		return ConflictError{Op: op, Field: "email"}
	}
	if _, ok := m.byUsername[c.User.UsernameNorm]; ok {
		return ConflictError{Op: op, Field: "username"}
	}
	if _, ok := m.byID[c.User.ID]; ok {
		return ConflictError{Op: op, Field: "id"}
	}

	m.byID[c.User.ID] = c
	m.byEmail[c.User.EmailNorm] = c.User.ID
	m.byUsername[c.User.UsernameNorm] = c.User.ID
	return nil
}

func (m *MemoryStore) CredentialByEmailNorm(ctx context.Context, emailNorm string) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[emailNorm]
	if !ok {
		return Credential{}, NotFoundError{Op: "identity.FindByEmail", Resource: "user"}
	}
	return m.byID[id], nil
}

func (m *MemoryStore) UserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.FindByID", Resource: "user"}
	}
	return c.User, nil
}
