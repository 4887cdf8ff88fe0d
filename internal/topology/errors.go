package topology

import "errors"

var (
	// ErrContextUnavailable is returned when a store is looked up in a context
	// that was never given one.
	ErrContextUnavailable = errors.New("topology: store not available in context")
	ErrNodeNotFound       = errors.New("topology: node not found")
	ErrNoPendingEdit      = errors.New("topology: no edit in progress")
)
