// Package handshake implements the per-Session challenge exchange:
// junk drain, nonce exchange in the clear, and an encrypted
// install-name challenge/response.
package handshake

import (
	"io"
	"net"

	"insert/internal/apperr"
	"insert/internal/config"
	"insert/internal/directional"
	"insert/internal/noncesource"
	"insert/internal/session"
)

// Perform runs the handshake over conn using cfg's key and install name
// and nonces as the process-wide nonce generator, returning a
// ready-to-pump Session. InstallNameMismatch in particular is always
// returned before any data frame is ever read or written.
func Perform(conn net.Conn, cfg *config.Config, nonces *noncesource.Source) (*session.Session, error) {
	if cfg.JunkSize > 0 {
		junk := make([]byte, cfg.JunkSize)
		if _, err := io.ReadFull(conn, junk); err != nil {
			return nil, apperr.Wrap(apperr.JunkReadError, err)
		}
	}

	nonce := nonces.NextNonce()
	if _, err := conn.Write(nonce[:]); err != nil {
		return nil, apperr.Wrap(apperr.NonceSendError, err)
	}

	tx, rx, err := directional.Derive(cfg.Key[:], nonce)
	if err != nil {
		return nil, err
	}

	encoded := make([]byte, config.InstallNameLen)
	if _, err := io.ReadFull(conn, encoded); err != nil {
		return nil, apperr.Wrap(apperr.InstallNameRecvError, err)
	}
	decoded := make([]byte, config.InstallNameLen)
	rx.XORKeyStream(decoded, encoded)

	if !directional.CTEqual(decoded, cfg.InstallName[:]) {
		return nil, apperr.New(apperr.InstallNameMismatch, "install name does not match configured value")
	}

	echo := make([]byte, config.InstallNameLen)
	tx.XORKeyStream(echo, decoded)
	if _, err := conn.Write(echo); err != nil {
		return nil, apperr.Wrap(apperr.InstallNameEchoError, err)
	}

	return session.New(conn, nonce, tx, rx), nil
}
