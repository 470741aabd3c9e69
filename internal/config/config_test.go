package config

import (
	"errors"
	"testing"
	"time"

	"insert/internal/apperr"
	"insert/internal/peersocket"
)

func validParams() Params {
	key := make([]byte, KeyLen)
	for i := range key {
		key[i] = byte(i)
	}
	name := make([]byte, InstallNameLen)
	copy(name, "0001")
	return Params{
		Key:            key,
		Addr:           "l0.0.0.0",
		PeerHost:       "0.0.0.0",
		PeerPort:       "31337",
		SleepSeconds:   1,
		InstallName:    name,
		JunkSize:       16,
		ErrorVarName:   "SYS",
		ErrorCodeWidth: 2,
		IOTimeout:      2 * time.Second,
	}
}

func TestNewValid(t *testing.T) {
	cfg, err := New(validParams())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PeerMode != peersocket.ModeListen {
		t.Fatalf("expected listen mode")
	}
	if cfg.InstallNameLen != 4 {
		t.Fatalf("expected logical install name length 4, got %d", cfg.InstallNameLen)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	p := validParams()
	p.Key = make([]byte, KeyLen-1)
	_, err := New(p)
	expectCode(t, err, apperr.InvalidKey)
}

func TestNewRejectsEmptyInstallName(t *testing.T) {
	p := validParams()
	p.InstallName = make([]byte, InstallNameLen)
	_, err := New(p)
	expectCode(t, err, apperr.InvalidInstallName)
}

func TestNewRejectsOversizedJunk(t *testing.T) {
	p := validParams()
	p.JunkSize = MaxJunkSize + 1
	_, err := New(p)
	expectCode(t, err, apperr.InvalidJunk)
}

func TestNewRejectsNegativeSleep(t *testing.T) {
	p := validParams()
	p.SleepSeconds = -1
	_, err := New(p)
	expectCode(t, err, apperr.InvalidSleep)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	p := validParams()
	p.Addr = "x0.0.0.0"
	_, err := New(p)
	expectCode(t, err, apperr.UnknownMode)
}

func TestLoadCompiledIn(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InstallNameLen != 4 {
		t.Fatalf("expected compiled-in install name length 4, got %d", cfg.InstallNameLen)
	}
}

func expectCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	var appErr *apperr.Err
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %v, got %v", code, err)
	}
}
