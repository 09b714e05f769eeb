package state

import "errors"

// Domain errors for snapshot persistence and replication.
var (
	// ErrStoreUnavailable is returned when the durable store backend
	// cannot be reached.
	ErrStoreUnavailable = errors.New("state store unavailable")

	// ErrTransportClosed is returned when publishing on a closed transport.
	ErrTransportClosed = errors.New("sync transport closed")

	// ErrMalformedSnapshot is returned when a persisted or received
	// payload cannot be decoded.
	ErrMalformedSnapshot = errors.New("malformed state snapshot")
)
