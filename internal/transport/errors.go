package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame means a frame did not contain title, message and delay.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrBadDelay means the delay field was not an unsigned integer.
	// Decode still returns a usable update carrying DefaultDelaySeconds.
	ErrBadDelay = errors.New("invalid delay")
	// ErrNoOwner means nothing currently owns the endpoint.
	ErrNoOwner = errors.New("no endpoint owner")
	// ErrOwnerExists means another process already holds the endpoint.
	ErrOwnerExists = errors.New("endpoint already owned")
	// ErrUnknownKind means the transport name is not recognised.
	ErrUnknownKind = errors.New("unknown transport")
)

// EndpointError records a failed operation on a session endpoint.
type EndpointError struct {
	Endpoint string
	Op       string
	Err      error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}
