// Package token provides secret-handling and hashing primitives for Conduit's
// session tokens.
//
// It is the single source of truth for:
// - loading symmetric signing secrets from the environment with a minimum size,
// - fingerprinting tokens so they can be correlated in logs without being leaked.
//
// Environment:
// - CONDUIT_JWT_SECRET: HS256 signing secret used when the JWT token format is selected.
package token
