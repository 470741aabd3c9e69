package frame

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"insert/internal/apperr"
	"insert/internal/streamcipher"
)

func testKey() []byte {
	k := make([]byte, streamcipher.KeySize)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

// pairedCiphers returns two Ciphers built from the same key/nonce, so
// a byte stream encrypted by one and decrypted by the other lines up —
// standing in for the real tx/rx pair a Session would hold.
func pairedCiphers(t *testing.T) (enc, dec *streamcipher.Cipher) {
	t.Helper()
	nonce := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	var err error
	enc, err = streamcipher.New(testKey(), nonce)
	if err != nil {
		t.Fatal(err)
	}
	dec, err = streamcipher.New(testKey(), nonce)
	if err != nil {
		t.Fatal(err)
	}
	return enc, dec
}

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tx, rx := pairedCiphers(t)
	w := NewWriter(client, tx)
	r := NewReader(server, rx)

	payload := bytes.Repeat([]byte{0xAB}, 1500)
	done := make(chan error, 1)
	go func() { done <- w.Send(len(payload), len(payload), payload) }()

	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch")
	}
}

func TestFrameTamperDetected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	tx, rx := pairedCiphers(t)
	r := NewReader(server, rx)

	payload := []byte{1, 2, 3, 4, 5}
	scratch := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(scratch, uint16(len(payload)))
	copy(scratch[2:], payload)
	sum := sha256.Sum224(scratch)

	encScratch := make([]byte, len(scratch))
	tx.XORKeyStream(encScratch, scratch)
	encDigest := make([]byte, len(sum))
	tx.XORKeyStream(encDigest, sum[:])
	encDigest[0] ^= 0x01 // flip one bit of the on-wire digest

	go func() {
		client.Write(encScratch)
		client.Write(encDigest)
	}()

	_, err := r.Next()
	var appErr *apperr.Err
	if !errors.As(err, &appErr) || appErr.Code != apperr.HashMismatch {
		t.Fatalf("expected HashMismatch, got %v", err)
	}
}

func TestFrameKeepaliveAbsorbed(t *testing.T) {
	for _, junkLen := range []int{0, 1, 1024, 65535} {
		junkLen := junkLen
		t.Run("", func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			tx, rx := pairedCiphers(t)
			w := NewWriter(client, tx)
			r := NewReader(server, rx)

			payload := []byte{9, 8, 7}
			go func() {
				writeKeepalive(t, client, tx, junkLen)
				_ = w.Send(len(payload), len(payload), payload)
			}()

			got, err := r.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatalf("expected only the data frame to surface, got %v", got)
			}
		})
	}
}

func TestFramePeerDisconnectMidFrame(t *testing.T) {
	client, server := net.Pipe()
	_, rx := pairedCiphers(t)
	r := NewReader(server, rx)

	go func() {
		tx, _ := pairedCiphers(t)
		lenBuf := []byte{0x00, 0x05}
		enc := make([]byte, 2)
		tx.XORKeyStream(enc, lenBuf)
		client.Write(enc)
		client.Close()
	}()

	_, err := r.Next()
	var appErr *apperr.Err
	if !errors.As(err, &appErr) || appErr.Code != apperr.PeerDisconnect {
		t.Fatalf("expected PeerDisconnect, got %v", err)
	}
}

func writeKeepalive(t *testing.T, conn net.Conn, tx *streamcipher.Cipher, junkLen int) {
	t.Helper()
	header := make([]byte, 4)
	header[0], header[1] = 0x00, 0x00
	header[2] = byte(junkLen >> 8)
	header[3] = byte(junkLen)
	encHeader := make([]byte, len(header))
	tx.XORKeyStream(encHeader, header)
	if _, err := conn.Write(encHeader); err != nil {
		t.Fatal(err)
	}
	if junkLen > 0 {
		junk := bytes.Repeat([]byte{0xCC}, junkLen)
		encJunk := make([]byte, junkLen)
		tx.XORKeyStream(encJunk, junk)
		if _, err := conn.Write(encJunk); err != nil {
			t.Fatal(err)
		}
	}
}
