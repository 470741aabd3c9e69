// Package directional derives the two independent per-Session
// keystreams — one for each direction — from the handshake nonce and
// the current wall-clock time, and provides the constant-time
// comparison used for install-name and digest checks.
package directional

import (
	"crypto/subtle"
	"time"

	"insert/internal/streamcipher"
)

// Derive builds the tx (transmit) and rx (receive) keystreams for one
// Session from the nonce exchanged during the handshake. Both peers run
// this same derivation and must agree on the current second: there is
// no tolerance window, so clock skew between the two hosts causes a
// silent handshake failure rather than a graceful retry.
func Derive(key []byte, nonce [8]byte) (tx, rx *streamcipher.Cipher, err error) {
	now := uint64(time.Now().Unix())

	var timed [8]byte
	for i := 0; i < 8; i++ {
		timed[i] = nonce[i] ^ byte(now>>(8*uint(i)))
	}

	rxNonce := timed
	rxNonce[0] &= 0xFC

	txNonce := timed
	txNonce[0] = (timed[0] & 0xFC) | 0x03

	rx, err = streamcipher.New(key, rxNonce[:])
	if err != nil {
		return nil, nil, err
	}
	tx, err = streamcipher.New(key, txNonce[:])
	if err != nil {
		return nil, nil, err
	}
	return tx, rx, nil
}

// CTEqual reports whether a and b hold the same bytes, in time that
// depends only on their lengths, not their contents. Used for the
// install-name challenge and the frame digest check.
func CTEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
