// Package identity is Conduit's credential directory.
//
// It owns user records (email, username, profile attributes) and their password
// hashes, and exposes the lookups the authentication service consumes:
// FindByEmail, FindByID, CreateUser and VerifyPassword.
//
// Persistence is pluggable through Store. PostgresStore is used in production;
// MemoryStore backs development runs and tests.
package identity
