package tivo

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBox is a loopback listener that records request lines and answers each
// connection via respond. A nil respond keeps the connection silent.
type fakeBox struct {
	ln      net.Listener
	respond func(req string) string

	mu       sync.Mutex
	requests []string
}

func newFakeBox(t *testing.T, respond func(req string) string) *fakeBox {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	b := &fakeBox{ln: ln, respond: respond}
	go b.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return b
}

func (b *fakeBox) serve() {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		go b.handle(conn)
	}
}

func (b *fakeBox) handle(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 256)
	_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	n, _ := conn.Read(buf)
	req := string(buf[:n])

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	if b.respond == nil {
		// Hold the connection open until the client gives up.
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _ = conn.Read(buf)
		return
	}
	if resp := b.respond(req); resp != "" {
		_, _ = conn.Write([]byte(resp))
	}
}

func (b *fakeBox) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *fakeBox) client(opts ...Option) *Client {
	addr := b.ln.Addr().(*net.TCPAddr)
	d := NewTCPDialer(addr.IP.String(), addr.Port, time.Second)
	opts = append([]Option{WithSettleDelay(5 * time.Millisecond), WithReadTimeout(500 * time.Millisecond)}, opts...)
	return NewClient(d, opts...)
}

func TestClientSend_WritesLineAndReadsResponse(t *testing.T) {
	box := newFakeBox(t, func(req string) string {
		return "CH_STATUS 0645 LOCAL\r\n"
	})
	c := box.client()

	resp, err := c.Send(context.Background(), IRCode(CodeChannelUp))
	require.NoError(t, err)
	assert.Equal(t, "CH_STATUS 0645 LOCAL", resp.Line)
	assert.False(t, resp.TimedOut)

	assert.Eventually(t, func() bool { return len(box.Requests()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "IRCODE CHANNELUP\r", box.Requests()[0])
}

func TestClientStatus_SendsNothing(t *testing.T) {
	box := newFakeBox(t, func(req string) string {
		return "CH_STATUS 0012 0034 RECORDING"
	})
	c := box.client()

	resp, err := c.Status(context.Background())
	require.NoError(t, err)

	st, ok := ParseStatus(resp.Line)
	require.True(t, ok)
	assert.Equal(t, "12.34", st.Channel)
	assert.Equal(t, "", box.Requests()[0])
}

func TestClientSend_TimeoutYieldsSentinel(t *testing.T) {
	box := newFakeBox(t, nil)
	c := box.client(WithReadTimeout(50 * time.Millisecond))

	resp, err := c.Send(context.Background(), IRCode(CodePlay))
	require.NoError(t, err)
	assert.True(t, resp.TimedOut)
	assert.Equal(t, TimeoutResponse, resp.Line)

	_, ok := ParseStatus(resp.Line)
	assert.False(t, ok)
}

func TestClientSend_ClosedWithoutReply(t *testing.T) {
	box := newFakeBox(t, func(req string) string { return "" })
	c := box.client()

	resp, err := c.Send(context.Background(), IRCode(CodePause))
	require.NoError(t, err)
	assert.Equal(t, "", resp.Line)
	assert.False(t, resp.TimedOut)
}

func TestClientSend_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c := NewClient(NewTCPDialer("127.0.0.1", port, 200*time.Millisecond))

	_, err = c.Send(context.Background(), IRCode(CodePlay))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestTCPDialer_DefaultPort(t *testing.T) {
	d := NewTCPDialer("192.168.1.20", 0, time.Second)
	assert.Equal(t, "192.168.1.20:"+strconv.Itoa(DefaultPort), d.Address())
}

type cancelledDialer struct{}

func (cancelledDialer) Address() string { return "10.0.0.9:31339" }

func (cancelledDialer) Dial(ctx context.Context) (Conn, error) {
	<-ctx.Done()
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: ctx.Err()}
}

func TestClientSend_CancelledDialIsNotUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(cancelledDialer{}).Send(ctx, Probe)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnreachable)
}
