// Package config holds the endpoint's configuration and validates it
// once at startup. The production values are compiled in, matching
// original_source/insert/insert.h's "edit the binary" deployment model,
// while staying an ordinary Go struct rather than package-level mutable
// globals.
package config

import (
	"time"

	"insert/internal/apperr"
	"insert/internal/peersocket"
)

const (
	// KeyLen is the required length of the embedded key.
	KeyLen = 32
	// InstallNameLen is the padded length of the install name buffer.
	InstallNameLen = 1024
	// MaxJunkSize is the largest permitted junk_size.
	MaxJunkSize = 1024
)

// Config is the immutable, process-lifetime configuration every other
// component is built from.
type Config struct {
	Key            [KeyLen]byte
	PeerMode       peersocket.Mode
	PeerHost       string
	PeerPort       string
	SleepSeconds   int
	InstallName    [InstallNameLen]byte
	InstallNameLen int
	// JunkSize is the number of cover bytes the handshake reads and
	// discards before sending its nonce. It is not negotiated and must
	// equal the peer's compiled-in value: a peer that sends fewer bytes
	// leaves the handshake blocked until the I/O timeout.
	JunkSize       int
	ErrorVarName   string
	ErrorCodeWidth int
	IOTimeout      time.Duration

	// Capture parameters for the one concrete CaptureSource this module
	// ships, carried here so a single ConfigProvider can drive both the
	// core protocol and the capture backend.
	CaptureIface   string
	CaptureSnaplen int32
	CaptureFilter  string
}

// Params is the raw material New validates into a Config. Every field
// mirrors one of Config's own fields, plus the CaptureSource
// parameters this module's one concrete adapter needs.
type Params struct {
	Key            []byte
	Addr           string // leading char selects peer mode: 'l' listen, 'c' connect
	PeerHost       string
	PeerPort       string
	SleepSeconds   int
	InstallName    []byte
	JunkSize       int
	ErrorVarName   string
	ErrorCodeWidth int
	IOTimeout      time.Duration
	CaptureIface   string
	CaptureSnaplen int32
	CaptureFilter  string
}

// New validates p and returns an immutable Config, or one of the
// startup validation errors. It is the single choke point every
// ConfigProvider (compiled-in or otherwise) must pass through.
func New(p Params) (*Config, error) {
	if len(p.Key) != KeyLen {
		return nil, apperr.New(apperr.InvalidKey, "key must be exactly 32 bytes")
	}
	if len(p.InstallName) == 0 || len(p.InstallName) > InstallNameLen || p.InstallName[0] == 0 {
		return nil, apperr.New(apperr.InvalidInstallName, "install name must be 1..1024 bytes and not start with a zero byte")
	}
	if p.JunkSize < 0 || p.JunkSize > MaxJunkSize {
		return nil, apperr.New(apperr.InvalidJunk, "junk_size must be 0..1024")
	}
	if p.SleepSeconds < 0 {
		return nil, apperr.New(apperr.InvalidSleep, "sleep_seconds must not be negative")
	}

	mode, err := peersocket.ParseMode(p.Addr)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		PeerMode:       mode,
		PeerHost:       p.PeerHost,
		PeerPort:       p.PeerPort,
		SleepSeconds:   p.SleepSeconds,
		JunkSize:       p.JunkSize,
		ErrorVarName:   p.ErrorVarName,
		ErrorCodeWidth: p.ErrorCodeWidth,
		IOTimeout:      p.IOTimeout,
		CaptureIface:   p.CaptureIface,
		CaptureSnaplen: p.CaptureSnaplen,
		CaptureFilter:  p.CaptureFilter,
	}
	copy(cfg.Key[:], p.Key)
	copy(cfg.InstallName[:], p.InstallName)
	cfg.InstallNameLen = logicalLen(cfg.InstallName[:])
	return cfg, nil
}

// logicalLen returns the index of the first zero byte in b, or len(b)
// if there is none — the install name's "first-zero-terminates"
// logical length.
func logicalLen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}

// Compiled-in deployment values. A real build of this binary edits
// these constants before compiling, matching the original's macro-based
// configuration; nothing else in this module reads them directly.
var (
	compiledKey         = [KeyLen]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}
	compiledAddr        = "l0.0.0.0"
	compiledHost        = "0.0.0.0"
	compiledPort        = "31337"
	compiledSleep       = 1
	compiledInstallName = "0001"
	compiledJunkSize    = 16
	compiledErrVarName  = "SYS"
	compiledErrWidth    = 2
	compiledTimeout     = 2 * time.Second
	compiledIface       = "eth0"
	compiledSnaplen     = int32(65535)
	compiledFilter      = ""
)

// Load builds the Config from this binary's compiled-in values. It is
// the ConfigProvider this module ships with; other providers (file,
// environment) are expected to call New with whatever they read, as
// long as the first-zero-terminates semantics of the install name are
// preserved.
func Load() (*Config, error) {
	name := make([]byte, InstallNameLen)
	copy(name, compiledInstallName)
	return New(Params{
		Key:            compiledKey[:],
		Addr:           compiledAddr,
		PeerHost:       compiledHost,
		PeerPort:       compiledPort,
		SleepSeconds:   compiledSleep,
		InstallName:    name,
		JunkSize:       compiledJunkSize,
		ErrorVarName:   compiledErrVarName,
		ErrorCodeWidth: compiledErrWidth,
		IOTimeout:      compiledTimeout,
		CaptureIface:   compiledIface,
		CaptureSnaplen: compiledSnaplen,
		CaptureFilter:  compiledFilter,
	})
}
