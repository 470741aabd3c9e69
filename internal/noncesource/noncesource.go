// Package noncesource produces per-connection 8-byte nonces that are
// unpredictable across restarts, by whitening a simple counter through a
// stream cipher bootstrapped from a non-cryptographic PRNG.
//
// The PRNG choice (math/rand, not crypto/rand) is deliberate: this
// mirrors a known weakness of the design being modeled rather than an
// oversight. A production deployment wanting unpredictability across
// restarts should seed the bootstrap nonce from the OS CSPRNG instead.
package noncesource

import (
	"encoding/binary"
	"math/rand"
	"os"
	"sync"
	"time"

	"insert/internal/streamcipher"
)

// Source is a single process-wide nonce generator. Its zero value is
// not usable; build one with New or fetch the process singleton with
// Global.
type Source struct {
	mu      sync.Mutex
	cipher  *streamcipher.Cipher
	counter uint64
}

// New builds a Source keyed with key. Initialization seeds an
// independent math/rand generator from wall time, advances it by the
// process id's number of draws (folding the pid into the bootstrap
// state), reseeds once from that generator, then draws 8 bytes to form
// the bootstrap nonce for the embedded StreamCipher.
func New(key []byte) (*Source, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < os.Getpid(); i++ {
		rng.Int63()
	}
	rng = rand.New(rand.NewSource(rng.Int63()))

	bootstrap := make([]byte, streamcipher.NonceSize)
	if _, err := rng.Read(bootstrap); err != nil {
		return nil, err
	}

	cipher, err := streamcipher.New(key, bootstrap)
	if err != nil {
		return nil, err
	}
	return &Source{cipher: cipher}, nil
}

// NextNonce increments the internal counter (first call uses counter =
// 1) and runs its little-endian encoding through the StreamCipher once,
// returning the whitened result. Distinct per call within one process;
// never produces the same nonce twice for a given Source.
func (s *Source) NextNonce() [8]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	var in [8]byte
	binary.LittleEndian.PutUint64(in[:], s.counter)

	var out [8]byte
	s.cipher.XORKeyStream(out[:], in[:])
	return out
}

var (
	globalOnce sync.Once
	global     *Source
	globalErr  error
)

// Global returns the process-wide Source, building it on first call
// with the given key and reusing it on every subsequent call
// regardless of the key argument passed then. Safe for concurrent use.
func Global(key []byte) (*Source, error) {
	globalOnce.Do(func() {
		global, globalErr = New(key)
	})
	return global, globalErr
}
