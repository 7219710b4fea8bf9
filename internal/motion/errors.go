package motion

import "errors"

// Domain errors for simulation sessions.
var (
	// ErrNoSeed indicates a session was asked to tick before a starting
	// coordinate was available.
	ErrNoSeed = errors.New("motion: no starting position available")

	// ErrInvalidSeed indicates a starting coordinate outside valid ranges.
	ErrInvalidSeed = errors.New("motion: starting position out of range")

	// ErrStopped indicates an operation on a session that has been stopped.
	ErrStopped = errors.New("motion: session stopped")
)
