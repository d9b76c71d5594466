package listings

import "errors"

var (
	// ErrAuth indicates the listings service rejected the login
	ErrAuth = errors.New("listings login rejected")

	// ErrUpstreamShape indicates a response was missing expected fields
	ErrUpstreamShape = errors.New("unexpected listings response")
)
