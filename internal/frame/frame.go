// Package frame implements the length-prefixed, digest-appended wire
// protocol used once the handshake completes: data frames and keepalive
// sub-frames, both carried entirely under a directional keystream.
package frame

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"insert/internal/apperr"
	"insert/internal/directional"
	"insert/internal/streamcipher"
)

const (
	// MaxPayload is the largest payload a single data frame may carry.
	MaxPayload = 65535
	// DigestSize is the length of the SHA-224 digest appended to every
	// data frame.
	DigestSize = sha256.Size224
)

// Reader decodes the peer→capture direction: it absorbs keepalives
// internally and returns only data frame payloads.
type Reader struct {
	conn io.Reader
	rx   *streamcipher.Cipher
}

func NewReader(conn io.Reader, rx *streamcipher.Cipher) *Reader {
	return &Reader{conn: conn, rx: rx}
}

// Next reads and decrypts frames from the connection until it produces
// one data-frame payload, discarding any number of keepalives along the
// way. It returns apperr.HashMismatch on digest mismatch and
// apperr.PeerDisconnect if the connection closes mid-frame.
func (r *Reader) Next() ([]byte, error) {
	for {
		lenBuf := make([]byte, 2)
		if err := r.readDecrypt(lenBuf); err != nil {
			return nil, err
		}
		length := binary.BigEndian.Uint16(lenBuf)

		if length == 0 {
			jlBuf := make([]byte, 2)
			if err := r.readDecrypt(jlBuf); err != nil {
				return nil, err
			}
			junkLen := binary.BigEndian.Uint16(jlBuf)
			if junkLen > 0 {
				junk := make([]byte, junkLen)
				if err := r.readDecrypt(junk); err != nil {
					return nil, err
				}
			}
			continue
		}

		payload := make([]byte, length)
		if err := r.readDecrypt(payload); err != nil {
			return nil, err
		}
		digest := make([]byte, DigestSize)
		if err := r.readDecrypt(digest); err != nil {
			return nil, err
		}

		scratch := make([]byte, 2+len(payload))
		binary.BigEndian.PutUint16(scratch, length)
		copy(scratch[2:], payload)
		sum := sha256.Sum224(scratch)

		if !directional.CTEqual(sum[:], digest) {
			return nil, apperr.New(apperr.HashMismatch, "frame digest mismatch")
		}
		return payload, nil
	}
}

func (r *Reader) readDecrypt(buf []byte) error {
	if _, err := io.ReadFull(r.conn, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return apperr.Wrap(apperr.PeerDisconnect, err)
		}
		return apperr.Wrap(apperr.RecvError, err)
	}
	r.rx.XORKeyStream(buf, buf)
	return nil
}

// Writer encodes the capture→peer direction: each call to Send emits
// exactly one data frame as two writes (length||payload, then digest).
type Writer struct {
	conn io.Writer
	tx   *streamcipher.Cipher
}

func NewWriter(conn io.Writer, tx *streamcipher.Cipher) *Writer {
	return &Writer{conn: conn, tx: tx}
}

// Send frames and sends one captured payload. capturedLen and totalLen
// come from the CaptureSource callback verbatim; a mismatch or an
// oversized frame is a terminal Session error, not a truncation to
// silently tolerate.
func (w *Writer) Send(capturedLen, totalLen int, payload []byte) error {
	if capturedLen != totalLen {
		return apperr.New(apperr.CaptureTruncated, "captured length does not match actual length")
	}
	if capturedLen > MaxPayload {
		return apperr.New(apperr.CaptureTooLarge, "captured frame exceeds 65535 bytes")
	}

	scratch := make([]byte, 2+capturedLen)
	binary.BigEndian.PutUint16(scratch, uint16(capturedLen))
	copy(scratch[2:], payload[:capturedLen])
	sum := sha256.Sum224(scratch)

	enc := make([]byte, len(scratch))
	w.tx.XORKeyStream(enc, scratch)
	if _, err := w.conn.Write(enc); err != nil {
		return apperr.Wrap(apperr.SendError, err)
	}

	digestEnc := make([]byte, DigestSize)
	w.tx.XORKeyStream(digestEnc, sum[:])
	if _, err := w.conn.Write(digestEnc); err != nil {
		return apperr.Wrap(apperr.SendError, err)
	}
	return nil
}
