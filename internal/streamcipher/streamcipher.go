// Package streamcipher implements the DJB ChaCha20 stream cipher variant
// this tunnel is specified against: a 256-bit key and a 64-bit (8-byte)
// nonce, with no AEAD tag. This is deliberately not golang.org/x/crypto/
// chacha20, which only accepts the IETF 96-bit-nonce variant.
package streamcipher

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	// KeySize is the cipher's key length in bytes.
	KeySize = 32
	// NonceSize is the cipher's nonce length in bytes.
	NonceSize = 8

	stateWords = 16
	blockBytes = stateWords * 4
	rounds     = 20
)

var (
	ErrInvalidKey   = errors.New("streamcipher: key must be 32 bytes")
	ErrInvalidNonce = errors.New("streamcipher: nonce must be 8 bytes")
)

var sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// Cipher holds one ChaCha20 state and the partially-consumed keystream
// block derived from it. The state is advanced sequentially; no block
// is ever produced twice for the same state.
type Cipher struct {
	state [stateWords]uint32
	block [blockBytes]byte
	// unused is the number of bytes remaining in block that have not
	// yet been XORed into a caller's buffer.
	unused int
}

// New builds a Cipher from a 32-byte key and an 8-byte nonce. The block
// counter (words 12/13) starts at zero.
func New(key, nonce []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	c := &Cipher{}
	c.state[0], c.state[1], c.state[2], c.state[3] = sigma[0], sigma[1], sigma[2], sigma[3]
	for i := 0; i < 8; i++ {
		c.state[4+i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	c.state[12] = 0
	c.state[13] = 0
	c.state[14] = binary.LittleEndian.Uint32(nonce[0:4])
	c.state[15] = binary.LittleEndian.Uint32(nonce[4:8])
	return c, nil
}

// XORKeyStream XORs len(src) keystream bytes into src, writing the
// result to dst. dst and src may overlap exactly (in-place use), as is
// conventional for Go stream ciphers. Encryption and decryption are the
// same operation.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("streamcipher: dst shorter than src")
	}
	for i := 0; i < len(src); i++ {
		if c.unused == 0 {
			c.advance()
		}
		dst[i] = src[i] ^ c.block[blockBytes-c.unused]
		c.unused--
	}
}

// Reset zeros the cipher state and discards the current keystream
// block, so key material does not linger in memory past Session
// teardown.
func (c *Cipher) Reset() {
	for i := range c.state {
		c.state[i] = 0
	}
	for i := range c.block {
		c.block[i] = 0
	}
	c.unused = 0
}

func (c *Cipher) advance() {
	var x [stateWords]uint32
	copy(x[:], c.state[:])
	for i := 0; i < rounds/2; i++ {
		quarterRound(&x, 0, 4, 8, 12)
		quarterRound(&x, 1, 5, 9, 13)
		quarterRound(&x, 2, 6, 10, 14)
		quarterRound(&x, 3, 7, 11, 15)
		quarterRound(&x, 0, 5, 10, 15)
		quarterRound(&x, 1, 6, 11, 12)
		quarterRound(&x, 2, 7, 8, 13)
		quarterRound(&x, 3, 4, 9, 14)
	}
	for i := range x {
		binary.LittleEndian.PutUint32(c.block[i*4:], x[i]+c.state[i])
	}
	c.unused = blockBytes
	c.state[12]++
	if c.state[12] == 0 {
		c.state[13]++
	}
}

func quarterRound(x *[stateWords]uint32, a, b, c, d int) {
	x[a] += x[b]
	x[d] ^= x[a]
	x[d] = bits.RotateLeft32(x[d], 16)
	x[c] += x[d]
	x[b] ^= x[c]
	x[b] = bits.RotateLeft32(x[b], 12)
	x[a] += x[b]
	x[d] ^= x[a]
	x[d] = bits.RotateLeft32(x[d], 8)
	x[c] += x[d]
	x[b] ^= x[c]
	x[b] = bits.RotateLeft32(x[b], 7)
}
