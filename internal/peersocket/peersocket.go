// Package peersocket implements the listen-or-connect TCP endpoint,
// plus a per-operation deadline wrapper standing in for
// SO_SNDTIMEO/SO_RCVTIMEO.
package peersocket

import (
	"context"
	"net"
	"time"

	"insert/internal/apperr"
)

// Mode selects whether a Session's socket is obtained by listening or
// by connecting out, chosen from the first character of the configured
// peer address.
type Mode int

const (
	ModeListen Mode = iota
	ModeConnect
)

// ParseMode reads the leading character of addr: 'l' means listen, 'c'
// means connect, anything else is the fatal UnknownMode.
func ParseMode(addr string) (Mode, error) {
	if len(addr) == 0 {
		return 0, apperr.New(apperr.UnknownMode, "empty peer address")
	}
	switch addr[0] {
	case 'l':
		return ModeListen, nil
	case 'c':
		return ModeConnect, nil
	default:
		return 0, apperr.New(apperr.UnknownMode, "peer address must start with 'l' or 'c'")
	}
}

// Listen binds host:port, accepts exactly one connection and closes the
// listener immediately afterward — only one peer is ever accepted per
// Session. SO_REUSEADDR is net.Listen's default behavior on the
// platforms this module targets, so no raw setsockopt call is needed
// for that invariant.
func Listen(ctx context.Context, host, port string) (net.Conn, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, apperr.Wrap(apperr.ListenError, err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, apperr.Wrap(apperr.AcceptError, r.err)
		}
		return r.conn, nil
	}
}

// Connect dials host:port, returning the first successful connection.
func Connect(ctx context.Context, host, port string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, apperr.Wrap(apperr.ConnectError, err)
	}
	return conn, nil
}

// WithTimeouts wraps conn so every Read and Write first refreshes a
// deadline of timeout. A per-operation deadline is the same
// granularity as the per-syscall SO_SNDTIMEO/SO_RCVTIMEO the original
// sets: a slow, trickling peer can still keep a read alive indefinitely
// as long as each individual chunk arrives inside the timeout.
func WithTimeouts(conn net.Conn, timeout time.Duration) net.Conn {
	return &timeoutConn{Conn: conn, timeout: timeout}
}

type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, apperr.Wrap(apperr.TimeoutSetError, err)
	}
	return c.Conn.Read(p)
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, apperr.Wrap(apperr.TimeoutSetError, err)
	}
	return c.Conn.Write(p)
}
