package auth

// SessionWrite reports what happened to the session record on login or registration.
type SessionWrite int

const (
	// WriteRecorded means the new token is the live session.
	WriteRecorded SessionWrite = iota
	// WriteSkipped means the token expires within a second and was not recorded.
	WriteSkipped
	// WriteDegraded means the session store failed; the token was issued anyway.
	WriteDegraded
)

func (w SessionWrite) String() string {
	switch w {
	case WriteRecorded:
		return "recorded"
	case WriteSkipped:
		return "skipped"
	case WriteDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Revocation reports the outcome of a logout or an administrative revoke.
// None of the outcomes is an error for the caller.
type Revocation int

const (
	// RevokeApplied means the session record for the subject was deleted (or was already absent).
	RevokeApplied Revocation = iota
	// RevokeNoToken means the token could not be decoded, so there was nothing to revoke.
	RevokeNoToken
	// RevokeDegraded means the session store failed during the delete.
	RevokeDegraded
)

func (r Revocation) String() string {
	switch r {
	case RevokeApplied:
		return "applied"
	case RevokeNoToken:
		return "no_token"
	case RevokeDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Liveness is the verdict of a token check. Only Live authenticates.
type Liveness int

const (
	// NotLive means the token decoded but is expired, superseded, or logged out.
	NotLive Liveness = iota
	// Live means the token is exactly the recorded session for its subject.
	Live
	// Malformed means the token did not decode.
	Malformed
	// Unavailable means the session store could not be consulted.
	Unavailable
)

func (l Liveness) String() string {
	switch l {
	case Live:
		return "live"
	case NotLive:
		return "not_live"
	case Malformed:
		return "malformed"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
