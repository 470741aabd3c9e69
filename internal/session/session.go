// Package session holds the per-connection state a Supervisor creates
// after a successful handshake and destroys on any fatal I/O or
// protocol error: the socket, the two directional keystreams, and the
// write-once error cell the two pump flows share.
package session

import (
	"net"
	"sync"

	"insert/internal/streamcipher"
)

// Session is created per successful TCP accept/connect and destroyed on
// any fatal I/O or protocol error. The two pump flows share it by
// reference but each has exclusive access to its own direction: tx
// flow writes only, rx flow reads only. No shared mutable crypto state
// between flows.
type Session struct {
	Conn  net.Conn
	Nonce [8]byte
	Tx    *streamcipher.Cipher
	Rx    *streamcipher.Cipher

	errOnce sync.Once
	err     error
}

// New builds a Session from an already-established connection and the
// keystreams derived for it.
func New(conn net.Conn, nonce [8]byte, tx, rx *streamcipher.Cipher) *Session {
	return &Session{Conn: conn, Nonce: nonce, Tx: tx, Rx: rx}
}

// ReportError stores err as the Session's terminal error if none has
// been reported yet. The first flow to observe a terminal condition
// wins; every later call is a no-op — a write-once cell, never a plain
// shared integer two goroutines could race on.
func (s *Session) ReportError(err error) {
	if err == nil {
		return
	}
	s.errOnce.Do(func() {
		s.err = err
	})
}

// Err returns the Session's terminal error, or nil if none has been
// reported.
func (s *Session) Err() error {
	return s.err
}

// Close releases the socket and zeroes both keystreams so key material
// does not linger past teardown.
func (s *Session) Close() error {
	if s.Tx != nil {
		s.Tx.Reset()
	}
	if s.Rx != nil {
		s.Rx.Reset()
	}
	return s.Conn.Close()
}
