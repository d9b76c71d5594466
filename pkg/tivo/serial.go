package tivo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialBaudRate is the rate used by the serial control port.
const SerialBaudRate = 9600

// SerialDialer opens the serial control port for each command.
type SerialDialer struct {
	Path string
	Mode *serial.Mode
}

// NewSerialDialer returns a dialer for the serial port at path, 9600 8N1.
func NewSerialDialer(path string) *SerialDialer {
	return &SerialDialer{
		Path: path,
		Mode: &serial.Mode{
			BaudRate: SerialBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

// Address returns the port path.
func (d *SerialDialer) Address() string {
	return d.Path
}

// Dial opens the port. The context is only checked before opening; serial
// opens do not block on the remote end.
func (d *SerialDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(d.Path, d.Mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.Path, err)
	}

	log.Debug().Str("port", d.Path).Msg("Serial port opened")

	return &serialConn{port: port}, nil
}

// serialConn wraps a serial port as a Conn.
type serialConn struct {
	port serial.Port
	mu   sync.Mutex
}

// Write sends raw bytes to the serial port.
func (s *serialConn) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Write(data)
}

// Read returns (0, nil) once the read timeout elapses with no data.
func (s *serialConn) Read(buf []byte) (int, error) {
	return s.port.Read(buf)
}

func (s *serialConn) SetReadTimeout(d time.Duration) error {
	return s.port.SetReadTimeout(d)
}

// Close closes the serial port.
func (s *serialConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
