// Package tivo implements the TiVo remote-control line protocol.
//
// Every command opens its own connection, writes one line, waits briefly for
// the box to act, reads one response and closes the connection. There is no
// pooling and no retry; a failed command is left for the next poll to catch.
package tivo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
	DefaultSettleDelay    = 300 * time.Millisecond

	// TimeoutResponse stands in for the reply when the device stays silent.
	// It parses as an indeterminate status.
	TimeoutResponse = StatusNoChannel + " Video"

	readBufferSize = 1024
)

// Response is the single line read back after a command.
type Response struct {
	Line     string
	TimedOut bool
}

// Client sends commands to one device.
type Client struct {
	dialer      Dialer
	readTimeout time.Duration
	settle      time.Duration
	logger      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithReadTimeout sets how long to wait for the response line.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) { c.readTimeout = d }
}

// WithSettleDelay sets the pause between writing a command and reading.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Client) { c.settle = d }
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		if debug {
			c.logger = c.logger.Level(zerolog.DebugLevel)
		}
	}
}

// NewClient creates a client that reaches the device through d.
func NewClient(d Dialer, opts ...Option) *Client {
	c := &Client{
		dialer:      d,
		readTimeout: DefaultReadTimeout,
		settle:      DefaultSettleDelay,
		logger:      log.With().Str("device", d.Address()).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Address returns the device endpoint.
func (c *Client) Address() string {
	return c.dialer.Address()
}

// Status asks the device for its current channel.
func (c *Client) Status(ctx context.Context) (Response, error) {
	return c.Send(ctx, Probe)
}

// Send performs one connect, write, read, close cycle. A read timeout is not
// an error: the returned Response carries TimeoutResponse instead.
func (c *Client) Send(ctx context.Context, cmd Command) (Response, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("%w: connect %s: %w", ErrUnreachable, c.dialer.Address(), err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close connection")
		}
	}()

	line := cmd.Line()
	c.logger.Debug().Str("command", cmd.Name()).Str("request", strings.TrimSpace(line)).Msg("Sending request")

	if line != "" {
		if _, err := io.WriteString(conn, line); err != nil {
			return Response{}, fmt.Errorf("%w: write %s: %w", ErrUnreachable, c.dialer.Address(), err)
		}
	}

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-time.After(c.settle):
	}

	if err := conn.SetReadTimeout(c.readTimeout); err != nil {
		return Response{}, fmt.Errorf("%w: set read timeout: %w", ErrUnreachable, err)
	}

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		switch {
		case err == nil || isTimeout(err):
			c.logger.Debug().Str("command", cmd.Name()).Msg("Read timed out")
			return Response{Line: TimeoutResponse, TimedOut: true}, nil
		case errors.Is(err, io.EOF):
			return Response{}, nil
		default:
			return Response{}, fmt.Errorf("%w: read %s: %w", ErrUnreachable, c.dialer.Address(), err)
		}
	}

	resp := Response{Line: strings.TrimSpace(string(buf[:n]))}
	c.logger.Debug().Str("command", cmd.Name()).Str("response", resp.Line).Msg("Received response")

	return resp, nil
}
