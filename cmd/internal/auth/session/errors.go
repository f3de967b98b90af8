package session

import "errors"

var (
	// ErrMalformedToken is returned when a token fails signature or structural validation.
	ErrMalformedToken = errors.New("malformed token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
