package tivo

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

// DefaultPort is the network remote-control port.
const DefaultPort = 31339

// Conn is a single request/response exchange with the device.
type Conn interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the next Read. A Read that hits the bound either
	// returns a timeout error or (0, nil).
	SetReadTimeout(d time.Duration) error
}

// Dialer opens a fresh connection to a device.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)

	// Address describes the endpoint for logs and errors.
	Address() string
}

// TCPDialer connects over the network remote-control port.
type TCPDialer struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// NewTCPDialer returns a dialer for host:port. A zero port selects DefaultPort.
func NewTCPDialer(host string, port int, timeout time.Duration) *TCPDialer {
	if port == 0 {
		port = DefaultPort
	}
	return &TCPDialer{Host: host, Port: port, Timeout: timeout}
}

// Address returns host:port.
func (d *TCPDialer) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Dial connects with the configured connect timeout.
func (d *TCPDialer) Dial(ctx context.Context) (Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	c, err := nd.DialContext(ctx, "tcp", d.Address())
	if err != nil {
		return nil, err
	}
	return &tcpConn{Conn: c}, nil
}

type tcpConn struct {
	net.Conn
}

func (c *tcpConn) SetReadTimeout(d time.Duration) error {
	return c.Conn.SetReadDeadline(time.Now().Add(d))
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
