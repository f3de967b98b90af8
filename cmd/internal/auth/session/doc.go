// Package session implements Conduit's single-active-session model.
//
// A Codec signs identity claims into opaque bearer tokens and decodes them
// back without checking expiry (PASETO v4.public by default, HS256 JWT as an
// alternative). A Registry records, per user, the one token currently
// considered live in a TTL-capable key-value store. The record expires with
// the token, and a new login overwrites it, so older tokens stop being live
// even though they still verify.
//
// Transport (HTTP) integration is out of scope here.
package session
