// Package auth is Conduit's authentication service.
//
// It orchestrates the credential directory, the token codec and the session
// registry to implement login, registration, logout and liveness checks under
// a single-active-session policy: a successful login replaces whatever session
// was live for that user.
//
// Session store failures never fail login, registration or logout (they are
// reported as degraded results), while liveness checks fail closed.
package auth
