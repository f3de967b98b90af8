package kvstore

import "errors"

var (
	// ErrUnavailable is returned when the store cannot be reached or an operation fails in transit.
	ErrUnavailable = errors.New("kvstore: unavailable")

	// ErrClosed is returned for operations on a closed client.
	ErrClosed = errors.New("kvstore: closed")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("kvstore: invalid config")
)
