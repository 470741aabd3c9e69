// Package apperr defines the stable error codes this module surfaces
// through the ErrorSink or the process exit code. Each code mirrors the
// numeric value the original C implementation assigned in retvals.h so
// that deployments correlating error-slot values against old runbooks
// still see familiar numbers.
package apperr

import "fmt"

// Code is a stable, negative error identifier. The ErrorSink and the
// process exit code both transmit |Code|, never the negative form.
type Code int

const (
	// Config/validation — fatal at startup.
	UnknownMode         Code = -1
	InvalidSleep        Code = -2
	InvalidJunk         Code = -9
	InvalidKey          Code = -12
	InvalidInstallName  Code = -19

	// Peer setup.
	AddressResolveError Code = -5
	ListenError         Code = -6
	AcceptError         Code = -7
	ConnectError        Code = -8
	TimeoutSetError     Code = -14

	// Handshake.
	JunkReadError         Code = -10
	NonceSendError        Code = -17
	InstallNameRecvError  Code = -18
	InstallNameMismatch   Code = -20
	InstallNameEchoError  Code = -21

	// Pump I/O.
	SendError         Code = -13
	RecvError         Code = -16
	PeerDisconnect    Code = -23
	HashMismatch      Code = -22
	CaptureError      Code = -24
	CaptureTruncated  Code = -25
	CaptureTooLarge   Code = -26
)

var names = map[Code]string{
	UnknownMode:          "UnknownMode",
	InvalidSleep:         "InvalidSleep",
	InvalidJunk:          "InvalidJunk",
	InvalidKey:           "InvalidKey",
	InvalidInstallName:   "InvalidInstallName",
	AddressResolveError:  "AddressResolveError",
	ListenError:          "ListenError",
	AcceptError:          "AcceptError",
	ConnectError:         "ConnectError",
	TimeoutSetError:      "TimeoutSetError",
	JunkReadError:        "JunkReadError",
	NonceSendError:       "NonceSendError",
	InstallNameRecvError: "InstallNameRecvError",
	InstallNameMismatch:  "InstallNameMismatch",
	InstallNameEchoError: "InstallNameEchoError",
	SendError:            "SendError",
	RecvError:            "RecvError",
	PeerDisconnect:       "PeerDisconnect",
	HashMismatch:         "HashMismatch",
	CaptureError:         "CaptureError",
	CaptureTruncated:     "CaptureTruncated",
	CaptureTooLarge:      "CaptureTooLarge",
}

// Abs returns the code's absolute value, the form ErrorSink and the
// process exit code both use on the wire/in the environment.
func (c Code) Abs() int {
	if c < 0 {
		return int(-c)
	}
	return int(c)
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

func (c Code) Error() string {
	return c.String()
}

// Fatal reports whether c is one of the startup validation codes that
// must exit the process rather than be retried by the Supervisor.
func (c Code) Fatal() bool {
	switch c {
	case UnknownMode, InvalidKey, InvalidInstallName, InvalidSleep, InvalidJunk:
		return true
	default:
		return false
	}
}

// Err wraps a Code with additional context from the call site that
// produced it, while preserving the Code for errors.As/ErrorSink use.
type Err struct {
	Code Code
	Msg  string
}

func New(code Code, msg string) *Err {
	return &Err{Code: code, Msg: msg}
}

func Wrap(code Code, err error) *Err {
	if err == nil {
		return &Err{Code: code}
	}
	return &Err{Code: code, Msg: err.Error()}
}

func (e *Err) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Err) Unwrap() error {
	return e.Code
}
