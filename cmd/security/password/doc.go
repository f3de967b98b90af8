// Package password provides password hashing and verification for Conduit.
//
// New hashes are Argon2id in a PHC-like encoded string. Verification also accepts
// bcrypt hashes ($2a$, $2b$, $2y$) so that accounts imported from the legacy
// RealWorld database keep working until their next password change.
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify.
// - Argon2id verification refuses parameters far above the configured cost (anti-DoS).
package password
