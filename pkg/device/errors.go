package device

import (
	"errors"

	"github.com/urmzd/homai-tivo/pkg/tivo"
)

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the controller is not connected
	ErrNotConnected = errors.New("controller not connected")

	// ErrUnsupported indicates an operation is not supported by the device
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates a state payload failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates a device with the same name or endpoint exists
	ErrConflict = errors.New("device already exists")

	// ErrUnreachable indicates the box did not accept a connection
	ErrUnreachable = tivo.ErrUnreachable

	// ErrUpstream indicates the listings service rejected the login or
	// answered with something unusable
	ErrUpstream = errors.New("listings service error")
)
