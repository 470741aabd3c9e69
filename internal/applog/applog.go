// Package applog is the thin logging seam used throughout this module,
// so packages depend on an interface rather than the bare log package
// and tests can assert on emitted lines.
package applog

import "log"

// Logger is satisfied by anything that can format and emit one line.
type Logger interface {
	Printf(format string, v ...any)
}

// StdLogger delegates to the standard library's log package.
type StdLogger struct{}

func (StdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// Nop discards everything logged through it. Useful in tests that don't
// care about log output.
type Nop struct{}

func (Nop) Printf(string, ...any) {}
