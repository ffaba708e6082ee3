package domain

import "errors"

var (
	// ErrAlreadyConnected is returned by Connect when the transport already holds a socket.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNotConnected is returned by Send when no socket is open.
	ErrNotConnected = errors.New("not connected")
	// ErrUnsupportedValue marks a metric whose value cannot be put on the wire.
	ErrUnsupportedValue = errors.New("unsupported metric value")
	// ErrNonFinite marks NaN or infinite floats.
	ErrNonFinite = errors.New("non-finite float value")
)
