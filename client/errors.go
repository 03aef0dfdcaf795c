package client

import "errors"

// Sentinel errors for discovery and resolution.
var (
	ErrInvalidReference   = errors.New("client: invalid sequence number or identifier")
	ErrAlreadyInitialized = errors.New("client: session already initialized")
	ErrNotInitialized     = errors.New("client: session not initialized")
	ErrUnmatchedEndMarker = errors.New("client: end marker without matching start marker")
	ErrUnclosedMarker     = errors.New("client: prerendered marker is never closed")
	ErrInvalidTransition  = errors.New("client: invalid boundary state transition")
	ErrDuplicateRoot      = errors.New("client: pending root already registered")
	ErrDuplicateSequence  = errors.New("client: server sequence appears twice")
	ErrEmptySessionID     = errors.New("client: empty session id")
)

// IsInvalidReference reports whether err came from resolving an unknown
// sequence number or identifier.
func IsInvalidReference(err error) bool {
	return errors.Is(err, ErrInvalidReference)
}
