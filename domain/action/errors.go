package action

import "errors"

// Domain errors for action loading.
var (
	// ErrInvalidReference is returned when a reference ID matches none of the
	// recognized pattern families.
	ErrInvalidReference = errors.New("invalid reference ID format")

	// ErrFetchFailed is returned when record retrieval fails.
	ErrFetchFailed = errors.New("action record fetch failed")
)
