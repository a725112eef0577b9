// Package transport delivers plot frames to the plotting front end.
//
// Every curve owns a Link, a lazily dialed connection that retries a failed
// write once after reconnecting. A Batcher coalesces frames from many links
// into one group envelope between Begin and End; the Token returned by Begin
// is passed down explicitly by code that submits while the group is open.
package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultDialTimeout bounds connection setup when a dialer has no timeout.
const DefaultDialTimeout = 5 * time.Second

// Conn is an open connection to the plotting front end.
type Conn interface {
	// WriteFrame writes one complete frame.
	WriteFrame(ctx context.Context, frame []byte) error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// TCPDialer dials the front end's TCP port. Frames are written back to back
// on the stream; each frame carries its own length.
type TCPDialer struct {
	Addr    string
	Timeout time.Duration
}

// Dial connects to d.Addr.
func (d TCPDialer) Dial(ctx context.Context) (Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	nd := net.Dialer{Timeout: timeout}
	c, err := nd.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", d.Addr, err)
	}

	return &tcpConn{conn: c}, nil
}

type tcpConn struct {
	conn net.Conn
}

func (c *tcpConn) WriteFrame(ctx context.Context, frame []byte) error {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	_, err := c.conn.Write(frame)

	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

// WebSocketDialer dials a WebSocket endpoint and sends each frame as one
// binary message.
type WebSocketDialer struct {
	URL     string
	Header  http.Header
	Timeout time.Duration
}

// Dial performs the WebSocket handshake with d.URL.
func (d WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	c, _, err := dialer.DialContext(ctx, d.URL, d.Header) //nolint: bodyclose
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", d.URL, err)
	}

	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) WriteFrame(ctx context.Context, frame []byte) error {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	return c.conn.Close()
}
