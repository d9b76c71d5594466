package tivo

import "errors"

var (
	// ErrUnreachable indicates the device could not be connected to or written to
	ErrUnreachable = errors.New("device unreachable")
)
